package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	bundledomain "github.com/craftwork-labs/minutemarket/internal/bundle/domain"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	"github.com/craftwork-labs/minutemarket/internal/order/domain"
	orgdomain "github.com/craftwork-labs/minutemarket/internal/organization/domain"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	OrgSvc    orgdomain.Service
	BundleSvc bundledomain.Service
	Clock     clock.Clock
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	orgSvc    orgdomain.Service
	bundleSvc bundledomain.Service
	clock     clock.Clock
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("order.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		orgSvc:    p.OrgSvc,
		bundleSvc: p.BundleSvc,
		clock:     p.Clock,
	}
}

func (s *Service) CreateCheckout(ctx context.Context, req domain.CreateCheckoutRequest) (*domain.Order, error) {
	org, err := s.orgSvc.GetByID(ctx, req.OrgID)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}
	bundle, err := s.bundleSvc.GetByID(ctx, req.BundleID)
	if err != nil {
		return nil, domain.ErrInvalidBundle
	}
	if !bundle.Active {
		return nil, bundledomain.ErrInactive
	}

	now := s.clock.Now()
	order := domain.Order{
		ID:          s.genID.Generate(),
		OrgID:       org.ID,
		ProviderID:  bundle.ProviderID,
		BundleID:    bundle.ID,
		AmountCents: bundle.PriceCents,
		Currency:    bundle.Currency,
		Status:      domain.OrderStatusPending,
		// cs_ prefix mirrors the checkout-session ids payment
		// processors hand back
		ExternalSessionID: "cs_" + uuid.NewString(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Insert(ctx, nil, order); err != nil {
		return nil, err
	}

	s.log.Info("checkout created",
		zap.String("order_id", order.ID.String()),
		zap.String("org_id", order.OrgID.String()),
		zap.String("bundle_id", order.BundleID.String()),
	)
	return &order, nil
}

// MarkPaid transitions the order on the caller's transaction so the
// payment flow can mint the lot in the same commit. The second return
// reports whether this call performed the transition; a redelivery
// gets false.
func (s *Service) MarkPaid(ctx context.Context, tx *gorm.DB, externalSessionID string) (*domain.Order, bool, error) {
	sessionID := strings.TrimSpace(externalSessionID)
	if sessionID == "" {
		return nil, false, domain.ErrInvalidSession
	}

	order, err := s.repo.FindBySessionForUpdate(ctx, tx, sessionID)
	if err != nil {
		return nil, false, err
	}

	switch order.Status {
	case domain.OrderStatusPaid:
		return order, false, nil
	case domain.OrderStatusPending:
	default:
		return nil, false, domain.ErrNotPending
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, tx, order.ID, domain.OrderStatusPaid, &now); err != nil {
		return nil, false, err
	}
	order.Status = domain.OrderStatusPaid
	order.PaidAt = &now
	return order, true, nil
}

func (s *Service) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusPending {
			return domain.ErrNotPending
		}
		if err := s.repo.UpdateStatus(ctx, tx, id, domain.OrderStatusCancelled, nil); err != nil {
			return err
		}
		order.Status = domain.OrderStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) MarkRefunded(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusPaid {
			return domain.ErrNotPaid
		}
		if err := s.repo.UpdateStatus(ctx, tx, id, domain.OrderStatusRefunded, nil); err != nil {
			return err
		}
		order.Status = domain.OrderStatusRefunded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, nil, id)
}

func (s *Service) ListByOrganization(ctx context.Context, orgID string) ([]domain.Order, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(orgID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.ListByOrganization(ctx, nil, id)
}

func parseOrderID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidOrder
	}
	return id, nil
}
