// Package scheduler drives the expiration sweeper on a fixed cadence.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craftwork-labs/minutemarket/internal/clock"
	"github.com/craftwork-labs/minutemarket/internal/config"
	sweeperdomain "github.com/craftwork-labs/minutemarket/internal/sweeper/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const jobTimeout = 5 * time.Minute

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     config.Config
	SweeperSvc sweeperdomain.Service
	Clock      clock.Clock
}

type Scheduler struct {
	log        *zap.Logger
	interval   time.Duration
	sweeperSvc sweeperdomain.Service
	clock      clock.Clock
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.SweeperSvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	interval := p.Config.SweepInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		interval:   interval,
		sweeperSvc: p.SweeperSvc,
		clock:      p.Clock,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	log := s.log.With(zap.String("job", name))
	err := fn(ctx)
	elapsed := s.clock.Now().Sub(start)
	if err == nil {
		log.Info("job finished", zap.Duration("elapsed", elapsed))
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		// soft timeout: the batch that was in flight rolled back and
		// the next run picks the backlog up again
		log.Warn("job timed out", zap.Duration("timeout", jobTimeout), zap.Error(err))
		return nil
	}

	log.Error("job failed", zap.Duration("elapsed", elapsed), zap.Error(err))
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, "expire_lots", func(ctx context.Context) error {
		_, err := s.sweeperSvc.Sweep(ctx, s.clock.Now())
		return err
	})
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
