package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/ports"
)

const defaultCollectWindow = 7 * 24 * time.Hour

// CollectorDeps wires the news feed and the snapshot store.
type CollectorDeps struct {
	Feed   ports.NewsFeed
	Store  ports.SnapshotStore
	Window time.Duration
	Logger *slog.Logger
}

// CollectStats summarizes one collection run.
type CollectStats struct {
	RunID     string
	Fetched   int
	Inserted  int
	Appended  int
	Unchanged int
	Deleted   int
	Failed    int
}

// Collector copies the current view counters of recent articles into the
// snapshot store once per day.
type Collector struct {
	feed   ports.NewsFeed
	store  ports.SnapshotStore
	window time.Duration
	logger *slog.Logger
	newID  func() string
}

// NewCollector constructs the collection job.
func NewCollector(deps CollectorDeps) *Collector {
	window := deps.Window
	if window <= 0 {
		window = defaultCollectWindow
	}
	return &Collector{
		feed:   deps.Feed,
		store:  deps.Store,
		window: window,
		logger: deps.Logger,
		newID:  uuid.NewString,
	}
}

// Collect snapshots every article published within the window ending at now.
// Failures on single articles are logged and counted; only a feed failure or
// cancellation aborts the run.
func (c *Collector) Collect(ctx context.Context, now time.Time) (CollectStats, error) {
	stats := CollectStats{RunID: c.newID()}
	if c.feed == nil || c.store == nil {
		return stats, fmt.Errorf("collector is not configured")
	}

	articles, err := c.feed.FetchRange(ctx, now.Add(-c.window), now)
	if err != nil {
		return stats, fmt.Errorf("fetch news feed: %w", err)
	}
	stats.Fetched = len(articles)

	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if article.Deleted {
			marked, err := c.store.MarkDeleted(ctx, article.ID)
			if err != nil {
				stats.Failed++
				c.warn("mark deleted failed", "run_id", stats.RunID, "article", article.ID, "error", err)
				continue
			}
			if marked {
				stats.Deleted++
			}
			continue
		}

		outcome, err := c.store.RecordSnapshot(ctx, article, now)
		if err != nil {
			stats.Failed++
			c.warn("record snapshot failed", "run_id", stats.RunID, "article", article.ID, "error", err)
			continue
		}
		switch outcome {
		case domain.SnapshotInserted:
			stats.Inserted++
		case domain.SnapshotAppended:
			stats.Appended++
		default:
			stats.Unchanged++
		}
	}

	c.info("collection finished",
		"run_id", stats.RunID,
		"fetched", stats.Fetched,
		"inserted", stats.Inserted,
		"appended", stats.Appended,
		"unchanged", stats.Unchanged,
		"deleted", stats.Deleted,
		"failed", stats.Failed)
	return stats, nil
}

func (c *Collector) info(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Collector) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
