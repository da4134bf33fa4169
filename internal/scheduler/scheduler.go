// Package scheduler runs extraction jobs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler periodically runs a job. A run, scheduled or manual, is skipped
// while the previous one is still in progress.
type Scheduler struct {
	scheduler *gocron.Scheduler
	running   sync.Mutex
	logger    *slog.Logger
	name      string
	cronExpr  string
	job       Job
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a new Scheduler for job on the standard five-field cron expression.
func New(name, cronExpr string, job Job, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		logger:    logger,
		name:      name,
		cronExpr:  cronExpr,
		job:       job,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.cronExpr == "" {
		return errors.New("scheduler: empty cron expression")
	}

	_, err := s.scheduler.Cron(s.cronExpr).Do(func() { s.run() })
	if err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", s.cronExpr, err)
	}

	s.scheduler.StartAsync()
	_, next := s.scheduler.NextRun()
	s.logger.Info("scheduler started", "job", s.name, "schedule", s.cronExpr, "next_run", next)
	return nil
}

// RunNow executes the job once, synchronously. It reports false when the job
// was skipped because another run is in progress.
func (s *Scheduler) RunNow() bool {
	return s.run()
}

func (s *Scheduler) run() bool {
	if !s.running.TryLock() {
		s.logger.Warn("scheduled job skipped, previous run still in progress", "job", s.name)
		return false
	}
	defer s.running.Unlock()

	start := time.Now()
	s.logger.Info("scheduled job started", "job", s.name)
	if err := s.job(s.ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", s.name, "error", err, "duration", time.Since(start))
		return true
	}
	s.logger.Info("scheduled job completed", "job", s.name, "duration", time.Since(start))
	return true
}

// Stop cancels a running job and stops the scheduler.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
