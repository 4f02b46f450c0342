// Package scheduler runs the periodic booking sweeps on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/gearbooking/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper is the part of the booking service the scheduler drives.
type Sweeper interface {
	ActivateDueBookings(ctx context.Context) (int, error)
	ExpireStalePending(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// New registers the sweeps. Schedules use six fields, seconds first, in UTC.
func New(cfg config.WorkerConfig, sweeper Sweeper, log *zap.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		sweeper: sweeper,
		log:     log.Named("scheduler"),
		ctx:     ctx,
		cancel:  cancel,
	}

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) (int, error)
	}{
		{"activate_due_bookings", cfg.ActivateSchedule, sweeper.ActivateDueBookings},
		{"expire_stale_pending", cfg.ExpireSchedule, sweeper.ExpireStalePending},
	}
	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.schedule, s.wrap(job.name, job.run)); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule %s %q: %w", job.name, job.schedule, err)
		}
	}
	return s, nil
}

func (s *Scheduler) wrap(name string, run func(context.Context) (int, error)) func() {
	return func() {
		start := time.Now()
		n, err := run(s.ctx)
		if err != nil {
			s.log.Error("sweep failed", zap.String("job", name), zap.Int("transitioned", n), zap.Error(err))
			return
		}
		s.log.Info("sweep finished", zap.String("job", name), zap.Int("transitioned", n),
			zap.Duration("took", time.Since(start)))
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running sweeps and waits for them until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce runs both sweeps immediately, activation first.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if _, err := s.sweeper.ActivateDueBookings(ctx); err != nil {
		return fmt.Errorf("activate due bookings: %w", err)
	}
	if _, err := s.sweeper.ExpireStalePending(ctx); err != nil {
		return fmt.Errorf("expire stale pending: %w", err)
	}
	return nil
}
