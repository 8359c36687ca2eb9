package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

var ErrNoSchedule = errors.New("no cron expression configured")

// Batch runs one complete pipeline batch.
type Batch func(ctx context.Context) error

// Scheduler runs a batch on a cron schedule. A tick that fires while the
// previous batch still runs is skipped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cron      string
	batch     Batch
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler evaluating cron in loc. timeout bounds a single
// batch; <= 0 leaves it unbounded.
func New(cron string, loc *time.Location, timeout time.Duration, batch Batch, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		cron:      cron,
		batch:     batch,
		timeout:   timeout,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the batch and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.cron == "" {
		return ErrNoSchedule
	}

	job, err := s.scheduler.Cron(s.cron).Do(s.tick)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "cron", s.cron, "next_run", job.NextRun())
	return nil
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Info("running scheduled batch")
	if err := s.batch(ctx); err != nil {
		s.logger.Error("scheduled batch failed", "err", err, "elapsed", time.Since(start))
		return
	}
	s.logger.Info("completed scheduled batch", "elapsed", time.Since(start))
}

// RunNow triggers the batch immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	s.scheduler.RunAll()
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
