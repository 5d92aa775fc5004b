package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsroomStats/internal/aggregate"
	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/period"
	"NewsroomStats/internal/ports"
	"NewsroomStats/internal/report"
)

// Digest publishes the department ranking of the last complete week.
type Digest struct {
	dashboard *Dashboard
	notifier  ports.Notifier
	top       int
	logger    *slog.Logger
}

// NewDigest wires the dashboard with a notifier. top <= 0 lists every department.
func NewDigest(dashboard *Dashboard, notifier ports.Notifier, top int, log *slog.Logger) *Digest {
	return &Digest{dashboard: dashboard, notifier: notifier, top: top, logger: log}
}

// Build formats the digest for the week before the one containing now.
func (d *Digest) Build(ctx context.Context, now time.Time) (string, error) {
	lastWeek := period.WeekStart(now).Add(-time.Nanosecond)
	week := period.Week.Ranges(lastWeek, lastWeek)[0]

	view, err := d.dashboard.Table(ctx, TableRequest{
		Query:       domain.Query{From: week.Start, To: week.End.Add(-time.Nanosecond)},
		Granularity: period.Week,
		GroupBy:     aggregate.ByDepartment,
		Period:      week.Key,
		Sort:        aggregate.ColumnTotalViews,
		Direction:   aggregate.Descending,
	})
	if err != nil {
		return "", err
	}
	return report.Digest(domain.PeriodBucket{PeriodKey: view.Period, Groups: view.Groups}, d.top), nil
}

// Publish builds the digest and sends it.
func (d *Digest) Publish(ctx context.Context, now time.Time) error {
	if d.notifier == nil {
		return fmt.Errorf("notifier is not configured")
	}
	message, err := d.Build(ctx, now)
	if err != nil {
		return fmt.Errorf("build digest: %w", err)
	}
	if err := d.notifier.PublishDigest(ctx, message); err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}
	if d.logger != nil {
		d.logger.Info("digest published", "bytes", len(message))
	}
	return nil
}
