package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/bundle/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("bundle.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.CreditBundle, error) {
	bundle, err := s.buildBundle(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, *bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (s *Service) Replace(ctx context.Context, bundleID string, req domain.CreateRequest) (*domain.CreditBundle, error) {
	oldID, err := snowflake.ParseString(strings.TrimSpace(bundleID))
	if err != nil || oldID == 0 {
		return nil, domain.ErrInvalidID
	}
	old, err := s.repo.GetByID(ctx, oldID)
	if err != nil {
		return nil, err
	}
	if !old.Active {
		return nil, domain.ErrInactive
	}
	if req.ProviderID == "" {
		req.ProviderID = old.ProviderID.String()
	}

	replacement, err := s.buildBundle(req)
	if err != nil {
		return nil, err
	}
	if replacement.ProviderID != old.ProviderID {
		return nil, domain.ErrInvalidProvider
	}

	if err := s.repo.Create(ctx, *replacement); err != nil {
		return nil, err
	}
	if err := s.repo.Supersede(ctx, old.ID, replacement.ID); err != nil {
		return nil, err
	}
	return replacement, nil
}

func (s *Service) Deactivate(ctx context.Context, bundleID string) error {
	id, err := snowflake.ParseString(strings.TrimSpace(bundleID))
	if err != nil || id == 0 {
		return domain.ErrInvalidID
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.CreditBundle, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.GetByID(ctx, parsed)
}

func (s *Service) ListByProvider(ctx context.Context, providerID string, activeOnly bool) ([]domain.CreditBundle, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(providerID))
	if err != nil || parsed == 0 {
		return nil, domain.ErrInvalidProvider
	}
	return s.repo.ListByProvider(ctx, parsed, activeOnly)
}

func (s *Service) buildBundle(req domain.CreateRequest) (*domain.CreditBundle, error) {
	providerID, err := snowflake.ParseString(strings.TrimSpace(req.ProviderID))
	if err != nil || providerID == 0 {
		return nil, domain.ErrInvalidProvider
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Hours <= 0 {
		return nil, domain.ErrInvalidHours
	}
	billingType := domain.BillingType(strings.ToLower(strings.TrimSpace(req.BillingType)))
	switch billingType {
	case domain.BillingTypeOneTime, domain.BillingTypeRecurring:
	default:
		return nil, domain.ErrInvalidBillingType
	}
	if req.PriceCents < 0 {
		return nil, domain.ErrInvalidPrice
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, domain.ErrInvalidCurrency
	}

	return &domain.CreditBundle{
		ID:            s.genID.Generate(),
		ProviderID:    providerID,
		Name:          name,
		Hours:         req.Hours,
		BillingType:   billingType,
		PriceCents:    req.PriceCents,
		Currency:      currency,
		Active:        true,
		ExternalPrice: strings.TrimSpace(req.ExternalPriceRef),
		CreatedAt:     time.Now().UTC(),
	}, nil
}
