package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/craftwork-labs/minutemarket/internal/audit/domain"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	"github.com/craftwork-labs/minutemarket/internal/consumption/domain"
	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	obsmetrics "github.com/craftwork-labs/minutemarket/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	LotRepo    lotdomain.Repository
	LedgerSvc  ledgerdomain.Service
	AuditSvc   auditdomain.Service
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	lotRepo    lotdomain.Repository
	ledgerSvc  ledgerdomain.Service
	auditSvc   auditdomain.Service
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("consumption.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		lotRepo:    p.LotRepo,
		ledgerSvc:  p.LedgerSvc,
		auditSvc:   p.AuditSvc,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Consume(ctx context.Context, req domain.ConsumeRequest) (*domain.ConsumeResult, error) {
	if err := validateConsume(req); err != nil {
		return nil, err
	}

	var result *domain.ConsumeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.consumeInTx(ctx, tx, req, ledgerdomain.ReasonUsage)
		if err != nil {
			return err
		}
		return s.auditSvc.Write(ctx, tx, auditdomain.Record{
			OrgID:      &req.OrgID,
			ProviderID: &req.ProviderID,
			EntityType: "credit_lot",
			EntityID:   result.LedgerEntryID.String(),
			Action:     "credit.consumed",
			ActorType:  string(req.Actor.Type),
			ActorUser:  req.Actor.UserID,
			After: map[string]any{
				"minutes_requested": req.Minutes,
				"allocations":       result.Allocations,
			},
		})
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordConsumedMinutes(req.Minutes)
	}
	return result, nil
}

func (s *Service) LogWork(ctx context.Context, req domain.LogWorkRequest) (*domain.LogWorkResult, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if req.ProviderID == 0 {
		return nil, domain.ErrInvalidProvider
	}
	if req.Minutes <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, domain.ErrInvalidCategory
	}
	performedAt := req.PerformedAt
	if performedAt.IsZero() {
		performedAt = s.clock.Now()
	}

	var result *domain.LogWorkResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		workLog := domain.WorkLog{
			ID:           s.genID.Generate(),
			OrgID:        req.OrgID,
			ProviderID:   req.ProviderID,
			MinutesSpent: req.Minutes,
			Category:     category,
			PerformedAt:  performedAt.UTC(),
			PerformedBy:  req.PerformedBy,
			IsBillable:   req.IsBillable,
			CreatedAt:    s.clock.Now(),
		}
		if err := s.repo.InsertWorkLog(ctx, tx, workLog); err != nil {
			return err
		}

		result = &domain.LogWorkResult{WorkLog: workLog}
		if !req.IsBillable {
			return nil
		}

		actor := ledgerdomain.UserActor(req.PerformedBy)
		consumed, err := s.consumeInTx(ctx, tx, domain.ConsumeRequest{
			OrgID:      req.OrgID,
			ProviderID: req.ProviderID,
			Minutes:    req.Minutes,
			WorkLogID:  &workLog.ID,
			Actor:      actor,
		}, ledgerdomain.ReasonUsage)
		if err != nil {
			return err
		}
		result.Allocations = consumed.Allocations

		return s.auditSvc.Write(ctx, tx, auditdomain.Record{
			OrgID:      &req.OrgID,
			ProviderID: &req.ProviderID,
			EntityType: "work_log",
			EntityID:   workLog.ID.String(),
			Action:     "work_log.billed",
			ActorType:  string(actor.Type),
			ActorUser:  actor.UserID,
			After: map[string]any{
				"minutes_spent": req.Minutes,
				"allocations":   consumed.Allocations,
			},
		})
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}
	if req.IsBillable && s.obsMetrics != nil {
		s.obsMetrics.RecordConsumedMinutes(req.Minutes)
	}
	return result, nil
}

func (s *Service) Reverse(ctx context.Context, workLogID string, actor ledgerdomain.Actor) (*domain.ReverseResult, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(workLogID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidWorkLog
	}

	var result *domain.ReverseResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		workLog, err := s.repo.GetWorkLog(ctx, tx, id)
		if err != nil {
			return err
		}
		if workLog.ReversedAt != nil {
			return domain.ErrAlreadyReversed
		}

		rows, err := s.repo.ListActiveByWorkLog(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return domain.ErrNothingToReverse
		}

		now := s.clock.Now()
		var reversed, restored int64
		for _, row := range rows {
			reversed += row.MinutesConsumed

			lot, err := s.lotRepo.GetForUpdate(ctx, tx, row.CreditLotID)
			if err != nil {
				return err
			}
			// forfeited minutes stay forfeited: an expired lot is not
			// re-credited, the trail is still marked reversed
			if !now.Before(lot.ExpiresAt) {
				continue
			}
			remaining := lot.MinutesRemaining + row.MinutesConsumed
			status := lotdomain.NextStatus(remaining, lot.ExpiresAt, now)
			if err := s.lotRepo.SetRemaining(ctx, tx, lot.ID, remaining, status); err != nil {
				return err
			}
			restored += row.MinutesConsumed
		}

		if err := s.repo.MarkConsumptionsReversed(ctx, tx, id, now); err != nil {
			return err
		}
		if err := s.repo.MarkWorkLogReversed(ctx, tx, id, now); err != nil {
			return err
		}

		if restored > 0 {
			if err := s.ledgerSvc.Append(ctx, tx, &ledgerdomain.CreditLedgerEntry{
				OrgID:        workLog.OrgID,
				ProviderID:   workLog.ProviderID,
				EntryType:    ledgerdomain.EntryTypeCredit,
				ReasonCode:   ledgerdomain.ReasonAdjustment,
				MinutesDelta: restored,
				ActorType:    actor.Type,
				ActorUserID:  actor.UserID,
				WorkLogID:    &id,
			}); err != nil {
				return err
			}
		}

		result = &domain.ReverseResult{
			WorkLogID:       id,
			ReversedMinutes: reversed,
			RestoredMinutes: restored,
		}
		return s.auditSvc.Write(ctx, tx, auditdomain.Record{
			OrgID:      &workLog.OrgID,
			ProviderID: &workLog.ProviderID,
			EntityType: "work_log",
			EntityID:   id.String(),
			Action:     "work_log.reversed",
			ActorType:  string(actor.Type),
			ActorUser:  actor.UserID,
			Before:     map[string]any{"reversed_minutes": reversed},
			After:      map[string]any{"restored_minutes": restored},
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("work log reversed",
		zap.String("work_log_id", result.WorkLogID.String()),
		zap.Int64("reversed_minutes", result.ReversedMinutes),
		zap.Int64("restored_minutes", result.RestoredMinutes),
	)
	return result, nil
}

func (s *Service) ApplyOrganizationDebit(ctx context.Context, req domain.ConsumeRequest) (*domain.ConsumeResult, error) {
	if err := validateConsume(req); err != nil {
		return nil, err
	}
	req.WorkLogID = nil

	var result *domain.ConsumeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.consumeInTx(ctx, tx, req, ledgerdomain.ReasonAdjustment)
		if err != nil {
			return err
		}
		return s.auditSvc.Write(ctx, tx, auditdomain.Record{
			OrgID:      &req.OrgID,
			ProviderID: &req.ProviderID,
			EntityType: "credit_lot",
			EntityID:   result.LedgerEntryID.String(),
			Action:     "credit.debited",
			ActorType:  string(req.Actor.Type),
			ActorUser:  req.Actor.UserID,
			After: map[string]any{
				"minutes_requested": req.Minutes,
				"allocations":       result.Allocations,
			},
		})
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordConsumedMinutes(req.Minutes)
	}
	return result, nil
}

// consumeInTx walks the locked FIFO-by-expiry lot set and decrements
// until the request is covered. Any shortfall aborts the caller's
// transaction: partial consumption would silently under-charge the
// organization.
func (s *Service) consumeInTx(ctx context.Context, tx *gorm.DB, req domain.ConsumeRequest, reason ledgerdomain.ReasonCode) (*domain.ConsumeResult, error) {
	now := s.clock.Now()
	lots, err := s.lotRepo.ListConsumableForUpdate(ctx, tx, req.OrgID, req.ProviderID, now)
	if err != nil {
		return nil, err
	}

	// the entry id is generated up front so adjustment consumption rows
	// can reference it
	entryID := s.genID.Generate()
	var entryRef *snowflake.ID
	if reason == ledgerdomain.ReasonAdjustment {
		entryRef = &entryID
	}

	left := req.Minutes
	allocations := make([]domain.Allocation, 0, 2)
	for _, lot := range lots {
		if left <= 0 {
			break
		}
		take := lot.MinutesRemaining
		if take > left {
			take = left
		}
		if take <= 0 {
			continue
		}

		status := lotdomain.NextStatus(lot.MinutesRemaining-take, lot.ExpiresAt, now)
		affected, err := s.lotRepo.DecrementRemaining(ctx, tx, lot.ID, take, status)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			// the lot was drained or expired between read and write;
			// with locking reads this is a sweep that won the race, so
			// skip rather than fail
			continue
		}

		if err := s.repo.InsertConsumption(ctx, tx, domain.LotConsumption{
			ID:                      s.genID.Generate(),
			CreditLotID:             lot.ID,
			WorkLogID:               req.WorkLogID,
			AdjustmentLedgerEntryID: entryRef,
			MinutesConsumed:         take,
			CreatedAt:               now,
		}); err != nil {
			return nil, err
		}

		allocations = append(allocations, domain.Allocation{LotID: lot.ID, Minutes: take})
		left -= take
	}

	if left > 0 {
		return nil, domain.ErrInsufficientCredit
	}

	if err := s.ledgerSvc.Append(ctx, tx, &ledgerdomain.CreditLedgerEntry{
		ID:           entryID,
		OrgID:        req.OrgID,
		ProviderID:   req.ProviderID,
		EntryType:    ledgerdomain.EntryTypeDebit,
		ReasonCode:   reason,
		MinutesDelta: req.Minutes,
		ActorType:    req.Actor.Type,
		ActorUserID:  req.Actor.UserID,
		WorkLogID:    req.WorkLogID,
	}); err != nil {
		return nil, err
	}

	return &domain.ConsumeResult{
		LedgerEntryID: entryID,
		Allocations:   allocations,
	}, nil
}

func (s *Service) recordFailure(err error) {
	if s.obsMetrics == nil {
		return
	}
	if err == domain.ErrInsufficientCredit {
		s.obsMetrics.IncConsumeFailure("insufficient_credit")
		return
	}
	s.obsMetrics.IncConsumeFailure("error")
}

func validateConsume(req domain.ConsumeRequest) error {
	if req.OrgID == 0 {
		return domain.ErrInvalidOrganization
	}
	if req.ProviderID == 0 {
		return domain.ErrInvalidProvider
	}
	if req.Minutes <= 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}
