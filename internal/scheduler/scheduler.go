// Package scheduler runs digest batches on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers a job function on a cron expression in a fixed
// timezone.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// New builds a scheduler for the given location.
func New(loc *time.Location, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		log:  log,
	}
}

// Add registers the job under the cron spec.
func (s *Scheduler) Add(spec string, job func(context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() {
		job(context.Background())
	})
	return err
}

// Run starts the scheduler and blocks until the context is cancelled,
// then waits for any in-flight job to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	s.log.Info("scheduler started", "entries", len(s.cron.Entries()))

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("scheduler stopped")
}
