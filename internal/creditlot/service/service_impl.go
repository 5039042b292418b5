package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/craftwork-labs/minutemarket/internal/audit/domain"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	obsmetrics "github.com/craftwork-labs/minutemarket/internal/observability/metrics"
	"github.com/craftwork-labs/minutemarket/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       lotdomain.Repository
	LedgerSvc  ledgerdomain.Service
	AuditSvc   auditdomain.Service
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       lotdomain.Repository
	ledgerSvc  ledgerdomain.Service
	auditSvc   auditdomain.Service
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) lotdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("creditlot.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		ledgerSvc:  p.LedgerSvc,
		auditSvc:   p.AuditSvc,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) MintLot(ctx context.Context, req lotdomain.MintRequest) (*lotdomain.CreditLot, error) {
	return s.mint(ctx, req, ledgerdomain.ReasonPurchase)
}

func (s *Service) GrantAdjustmentLot(ctx context.Context, req lotdomain.MintRequest) (*lotdomain.CreditLot, error) {
	req.OrderID = nil
	return s.mint(ctx, req, ledgerdomain.ReasonAdjustment)
}

func (s *Service) mint(ctx context.Context, req lotdomain.MintRequest, reason ledgerdomain.ReasonCode) (*lotdomain.CreditLot, error) {
	if req.OrgID == 0 {
		return nil, lotdomain.ErrInvalidOrganization
	}
	if req.ProviderID == 0 {
		return nil, lotdomain.ErrInvalidProvider
	}
	if req.Minutes <= 0 {
		return nil, lotdomain.ErrInvalidQuantity
	}
	now := s.clock.Now()
	if req.ExpiresAt.IsZero() || !req.ExpiresAt.After(now) {
		return nil, lotdomain.ErrInvalidExpiry
	}
	if req.OrderID == nil && reason == ledgerdomain.ReasonPurchase {
		reason = ledgerdomain.ReasonAdjustment
	}

	var lot *lotdomain.CreditLot
	minted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.OrderID != nil {
			existing, err := s.repo.FindByOrderID(ctx, tx, *req.OrderID)
			if err != nil {
				return err
			}
			if existing != nil {
				// redelivered payment confirmation: idempotent no-op
				lot = existing
				return nil
			}
		}

		created := lotdomain.CreditLot{
			ID:               s.genID.Generate(),
			OrgID:            req.OrgID,
			ProviderID:       req.ProviderID,
			OrderID:          req.OrderID,
			MinutesPurchased: req.Minutes,
			MinutesRemaining: req.Minutes,
			Status:           lotdomain.LotStatusActive,
			PurchasedAt:      now,
			ExpiresAt:        req.ExpiresAt.UTC(),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.repo.Insert(ctx, tx, created); err != nil {
			if db.IsDuplicateKeyErr(err) && req.OrderID != nil {
				raced, rerr := s.repo.FindByOrderID(ctx, tx, *req.OrderID)
				if rerr != nil {
					return rerr
				}
				if raced != nil {
					lot = raced
					return nil
				}
				return lotdomain.ErrDuplicateOrder
			}
			return err
		}

		entry := &ledgerdomain.CreditLedgerEntry{
			OrgID:        req.OrgID,
			ProviderID:   req.ProviderID,
			EntryType:    ledgerdomain.EntryTypeCredit,
			ReasonCode:   reason,
			MinutesDelta: req.Minutes,
			ActorType:    req.Actor.Type,
			ActorUserID:  req.Actor.UserID,
			OrderID:      req.OrderID,
			LotID:        &created.ID,
		}
		if err := s.ledgerSvc.Append(ctx, tx, entry); err != nil {
			return err
		}

		if err := s.auditSvc.Write(ctx, tx, auditdomain.Record{
			OrgID:      &req.OrgID,
			ProviderID: &req.ProviderID,
			EntityType: "credit_lot",
			EntityID:   created.ID.String(),
			Action:     "lot.minted",
			ActorType:  string(req.Actor.Type),
			ActorUser:  req.Actor.UserID,
			After:      created,
		}); err != nil {
			return err
		}

		lot = &created
		minted = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if minted && s.obsMetrics != nil {
		s.obsMetrics.RecordMintedMinutes(req.Minutes)
	}
	return lot, nil
}

func (s *Service) AdjustLot(ctx context.Context, req lotdomain.AdjustRequest) (*lotdomain.CreditLot, error) {
	if req.LotID == 0 {
		return nil, lotdomain.ErrInvalidID
	}
	if req.DeltaMinutes == 0 {
		return nil, lotdomain.ErrInvalidQuantity
	}

	var adjusted *lotdomain.CreditLot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lot, err := s.repo.GetForUpdate(ctx, tx, req.LotID)
		if err != nil {
			return err
		}
		before := *lot
		now := s.clock.Now()

		var remaining int64
		if req.DeltaMinutes > 0 {
			// a positive delta can only land on a lot whose expiry is
			// still ahead; expired lots need a fresh adjustment lot
			if !now.Before(lot.ExpiresAt) {
				return lotdomain.ErrLotAlreadyExpired
			}
			remaining = lot.MinutesRemaining + req.DeltaMinutes
		} else {
			decrease := -req.DeltaMinutes
			if decrease > lot.MinutesRemaining {
				return lotdomain.ErrInsufficientLotBalance
			}
			remaining = lot.MinutesRemaining - decrease
		}

		status := lotdomain.NextStatus(remaining, lot.ExpiresAt, now)
		if err := s.repo.SetRemaining(ctx, tx, lot.ID, remaining, status); err != nil {
			return err
		}
		lot.MinutesRemaining = remaining
		lot.Status = status
		lot.UpdatedAt = now

		entryType := ledgerdomain.EntryTypeCredit
		magnitude := req.DeltaMinutes
		if req.DeltaMinutes < 0 {
			entryType = ledgerdomain.EntryTypeDebit
			magnitude = -req.DeltaMinutes
		}
		if err := s.ledgerSvc.Append(ctx, tx, &ledgerdomain.CreditLedgerEntry{
			OrgID:        lot.OrgID,
			ProviderID:   lot.ProviderID,
			EntryType:    entryType,
			ReasonCode:   ledgerdomain.ReasonAdjustment,
			MinutesDelta: magnitude,
			ActorType:    req.Actor.Type,
			ActorUserID:  req.Actor.UserID,
			LotID:        &lot.ID,
		}); err != nil {
			return err
		}

		if err := s.auditSvc.Write(ctx, tx, auditdomain.Record{
			OrgID:      &lot.OrgID,
			ProviderID: &lot.ProviderID,
			EntityType: "credit_lot",
			EntityID:   lot.ID.String(),
			Action:     "lot.adjusted",
			ActorType:  string(req.Actor.Type),
			ActorUser:  req.Actor.UserID,
			Before:     before,
			After:      *lot,
		}); err != nil {
			return err
		}

		adjusted = lot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("lot adjusted",
		zap.String("lot_id", adjusted.ID.String()),
		zap.Int64("delta_minutes", req.DeltaMinutes),
		zap.Int64("minutes_remaining", adjusted.MinutesRemaining),
	)
	return adjusted, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*lotdomain.CreditLot, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, lotdomain.ErrInvalidID
	}
	return s.repo.GetByID(ctx, nil, parsed)
}
