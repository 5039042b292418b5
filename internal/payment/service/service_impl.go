package service

import (
	"context"
	"strings"
	"time"

	bundledomain "github.com/craftwork-labs/minutemarket/internal/bundle/domain"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	orderdomain "github.com/craftwork-labs/minutemarket/internal/order/domain"
	"github.com/craftwork-labs/minutemarket/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultValidity is the lot lifetime when the confirmation does not
// carry its own expiry.
const defaultValidity = 365 * 24 * time.Hour

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	OrderSvc  orderdomain.Service
	BundleSvc bundledomain.Service
	LotSvc    lotdomain.Service
	Clock     clock.Clock
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	orderSvc  orderdomain.Service
	bundleSvc bundledomain.Service
	lotSvc    lotdomain.Service
	clock     clock.Clock
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payment.service"),
		orderSvc:  p.OrderSvc,
		bundleSvc: p.BundleSvc,
		lotSvc:    p.LotSvc,
		clock:     p.Clock,
	}
}

// Confirm marks the order paid, then mints the lot. The two steps are
// separately idempotent, so a crash between them is healed by the
// payment processor's redelivery: the second delivery finds the order
// already paid and still calls MintLot, which returns the existing lot
// or creates the missing one.
func (s *Service) Confirm(ctx context.Context, conf domain.Confirmation) (*domain.ConfirmResult, error) {
	if strings.TrimSpace(conf.ExternalSessionID) == "" {
		return nil, domain.ErrInvalidConfirmation
	}

	var order *orderdomain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, _, err = s.orderSvc.MarkPaid(ctx, tx, conf.ExternalSessionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	minutes := conf.MinutesGranted
	if minutes <= 0 {
		bundle, err := s.bundleSvc.GetByID(ctx, order.BundleID.String())
		if err != nil {
			return nil, err
		}
		minutes = bundle.Minutes()
	}

	expiresAt := s.clock.Now().Add(defaultValidity)
	if conf.ExpiresAt != nil {
		expiresAt = *conf.ExpiresAt
	}

	lot, err := s.lotSvc.MintLot(ctx, lotdomain.MintRequest{
		OrgID:      order.OrgID,
		ProviderID: order.ProviderID,
		OrderID:    &order.ID,
		Minutes:    minutes,
		ExpiresAt:  expiresAt,
		Actor:      ledgerdomain.SystemActor(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment confirmed",
		zap.String("order_id", order.ID.String()),
		zap.String("lot_id", lot.ID.String()),
		zap.Int64("minutes", minutes),
	)
	return &domain.ConfirmResult{Order: order, Lot: lot}, nil
}
