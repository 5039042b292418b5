package service

import (
	"context"
	"time"

	"github.com/craftwork-labs/minutemarket/internal/balance/domain"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	"github.com/craftwork-labs/minutemarket/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config config.Config
	Repo   domain.Repository
	Clock  clock.Clock
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	clock       clock.Clock
	horizonDays int
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("balance.service"),
		repo:        p.Repo,
		clock:       p.Clock,
		horizonDays: p.Config.ExpiringSoonDays,
	}
}

func (s *Service) GetBalance(ctx context.Context, req domain.GetBalanceRequest) ([]domain.ProviderBalance, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	days := req.HorizonDays
	if days <= 0 {
		days = s.horizonDays
	}

	now := s.clock.Now()
	horizon := now.Add(time.Duration(days) * 24 * time.Hour)

	var balances []domain.ProviderBalance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		aggregates, err := s.repo.AggregateLots(ctx, tx, req.OrgID, now, horizon)
		if err != nil {
			return err
		}
		expired, err := s.repo.ExpiredMinutesByProvider(ctx, tx, req.OrgID)
		if err != nil {
			return err
		}

		balances = make([]domain.ProviderBalance, 0, len(aggregates))
		for _, agg := range aggregates {
			balances = append(balances, domain.ProviderBalance{
				ProviderID:          agg.ProviderID,
				TotalMinutes:        agg.Total,
				UsedMinutes:         agg.Total - agg.LiveRemaining - expired[agg.ProviderID],
				AvailableMinutes:    agg.Available,
				ExpiringSoonMinutes: agg.ExpiringSoon,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balances, nil
}
