package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// cycleTimeout bounds one scheduled collection cycle.
const cycleTimeout = 30 * time.Minute

// Scheduler runs collection cycles on a cron schedule. Each cycle covers the
// trailing lookback window ending today, so missed days heal on the next run.
type Scheduler struct {
	collector    *Collector
	scheduler    *gocron.Scheduler
	schedule     string
	lookbackDays int
	logger       *slog.Logger
}

// NewScheduler creates a Scheduler. The schedule is a cron expression
// evaluated in UTC.
func NewScheduler(c *Collector, schedule string, lookbackDays int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	return &Scheduler{
		collector:    c,
		scheduler:    gocron.NewScheduler(time.UTC),
		schedule:     schedule,
		lookbackDays: lookbackDays,
		logger:       logger,
	}
}

// Start schedules the job and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Cron(s.schedule).Do(s.runCycle)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "schedule", s.schedule, "lookback_days", s.lookbackDays)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}

// RunNow triggers one cycle outside the schedule.
func (s *Scheduler) RunNow() {
	s.runCycle()
}

func (s *Scheduler) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -(s.lookbackDays - 1))

	if _, err := s.collector.Run(ctx, from, to); err != nil {
		s.logger.Error("scheduled cycle failed", "error", err)
	}
}
