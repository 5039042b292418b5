package service

import (
	"context"
	"time"

	auditdomain "github.com/craftwork-labs/minutemarket/internal/audit/domain"
	"github.com/craftwork-labs/minutemarket/internal/clock"
	"github.com/craftwork-labs/minutemarket/internal/config"
	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	obsmetrics "github.com/craftwork-labs/minutemarket/internal/observability/metrics"
	"github.com/craftwork-labs/minutemarket/internal/sweeper/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Config     config.Config
	LotRepo    lotdomain.Repository
	LedgerSvc  ledgerdomain.Service
	AuditSvc   auditdomain.Service
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	lotRepo    lotdomain.Repository
	ledgerSvc  ledgerdomain.Service
	auditSvc   auditdomain.Service
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics
	batchSize  int
}

func NewService(p Params) domain.Service {
	batch := p.Config.SweepBatchSize
	if batch <= 0 {
		batch = 200
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("sweeper.service"),
		lotRepo:    p.LotRepo,
		ledgerSvc:  p.LedgerSvc,
		auditSvc:   p.AuditSvc,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,
		batchSize:  batch,
	}
}

// Sweep claims past-due lots in batches, one transaction per batch, so
// one stuck lot never holds locks over the whole backlog. Lots claimed
// with skip-locked that a concurrent consume holds are picked up on the
// next run.
func (s *Service) Sweep(ctx context.Context, now time.Time) (domain.Report, error) {
	started := s.clock.Now()
	var report domain.Report

	for {
		batched, err := s.sweepBatch(ctx, now, &report)
		if err != nil {
			return report, err
		}
		if batched < s.batchSize {
			break
		}
	}

	if s.obsMetrics != nil {
		s.obsMetrics.ObserveSweepDuration(s.clock.Now().Sub(started))
		if report.LotsExpired > 0 {
			s.obsMetrics.RecordExpiredMinutes(int(report.LotsExpired), report.TotalMinutesExpired)
		}
	}
	s.log.Info("sweep finished",
		zap.Int64("lots_expired", report.LotsExpired),
		zap.Int64("total_minutes_expired", report.TotalMinutesExpired),
	)
	return report, nil
}

func (s *Service) sweepBatch(ctx context.Context, now time.Time, report *domain.Report) (int, error) {
	var claimed int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lots, err := s.lotRepo.ListExpirableForUpdate(ctx, tx, now, s.batchSize)
		if err != nil {
			return err
		}
		claimed = len(lots)

		for _, lot := range lots {
			expired := lot.MinutesRemaining
			if err := s.lotRepo.Expire(ctx, tx, lot.ID); err != nil {
				return err
			}

			if expired > 0 {
				if err := s.ledgerSvc.Append(ctx, tx, &ledgerdomain.CreditLedgerEntry{
					OrgID:        lot.OrgID,
					ProviderID:   lot.ProviderID,
					EntryType:    ledgerdomain.EntryTypeDebit,
					ReasonCode:   ledgerdomain.ReasonExpiry,
					MinutesDelta: expired,
					ActorType:    ledgerdomain.ActorTypeSystem,
					LotID:        &lot.ID,
				}); err != nil {
					return err
				}
			}

			if err := s.auditSvc.Write(ctx, tx, auditdomain.Record{
				OrgID:      &lot.OrgID,
				ProviderID: &lot.ProviderID,
				EntityType: "credit_lot",
				EntityID:   lot.ID.String(),
				Action:     "lot.expired",
				ActorType:  string(ledgerdomain.ActorTypeSystem),
				Before: map[string]any{
					"status":            lot.Status,
					"minutes_remaining": lot.MinutesRemaining,
				},
				After: map[string]any{
					"status":            lotdomain.LotStatusExpired,
					"minutes_remaining": 0,
				},
			}); err != nil {
				return err
			}

			report.LotsExpired++
			report.TotalMinutesExpired += expired
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return claimed, nil
}
