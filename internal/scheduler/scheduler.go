// Package scheduler runs periodic catalog reloads.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docmirror/internal/logfields"
)

// Reloader rebuilds the catalog snapshot.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a stopped scheduler.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleEvery runs task every interval. Overlapping runs are skipped.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, task func()) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("invalid interval for %s: %s", name, interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create %s job: %w", name, err)
	}
	return job.ID().String(), nil
}

// ScheduleReload reloads the catalog every interval using ctx for each run.
func (s *Scheduler) ScheduleReload(ctx context.Context, interval time.Duration, r Reloader) (string, error) {
	return s.ScheduleEvery("catalog-reload", interval, func() {
		start := time.Now()
		if err := r.Reload(ctx); err != nil {
			slog.Warn("Scheduled catalog reload failed", logfields.Error(err))
			return
		}
		slog.Debug("Scheduled catalog reload finished",
			logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	})
}
