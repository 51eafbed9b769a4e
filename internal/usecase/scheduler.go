package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"NewsAggregator/internal/ports"
)

// Schedule holds the cron expressions of the periodic jobs.
type Schedule struct {
	Fetch   string
	Sweep   string
	Cleanup string
	// Sources receive one fetch job each per Fetch tick.
	Sources []string
}

// Scheduler wires the cron-like driver with the task client.
type Scheduler struct {
	driver   ports.Scheduler
	tasks    ports.TaskClient
	schedule Schedule
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, tasks ports.TaskClient, schedule Schedule, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		driver:   driver,
		tasks:    tasks,
		schedule: schedule,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start registers the periodic jobs and starts the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.tasks == nil {
		return nil
	}

	for _, source := range s.schedule.Sources {
		err := s.driver.AddJob("fetch:"+source, s.schedule.Fetch, s.enqueue("fetch", func(ctx context.Context) error {
			return s.tasks.Fetch(ctx, source)
		}))
		if err != nil {
			return fmt.Errorf("schedule fetch %s: %w", source, err)
		}
	}
	if err := s.driver.AddJob("sweep", s.schedule.Sweep, s.enqueue("sweep", s.tasks.Sweep)); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	if err := s.driver.AddJob("cleanup", s.schedule.Cleanup, s.enqueue("cleanup", s.tasks.Cleanup)); err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}

	if err := s.driver.Start(ctx); err != nil {
		return err
	}
	for _, name := range s.jobNames() {
		if next, ok := s.driver.Next(name); ok {
			s.logger.Info("periodic job scheduled", "job", name, "next_run", next)
		}
	}
	return nil
}

func (s *Scheduler) jobNames() []string {
	names := make([]string, 0, len(s.schedule.Sources)+2)
	for _, source := range s.schedule.Sources {
		names = append(names, "fetch:"+source)
	}
	return append(names, "sweep", "cleanup")
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) enqueue(name string, fn func(context.Context) error) func(context.Context) {
	return func(ctx context.Context) {
		if err := fn(ctx); err != nil {
			s.logger.Error("periodic enqueue failed", "job", name, "error", err)
			return
		}
		s.logger.Debug("periodic job queued", "job", name)
	}
}
