package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsroomStats/internal/ports"
)

// Scheduler wires the ticker driver with the collector use case.
type Scheduler struct {
	driver    ports.Scheduler
	collector *Collector
	logger    *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring collections.
func NewScheduler(driver ports.Scheduler, collector *Collector, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, collector: collector, logger: log}
}

// Start registers the collector with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.collector == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.collector.Collect(ctx, trigger); err != nil && s.logger != nil {
			s.logger.Error("scheduled collection failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
