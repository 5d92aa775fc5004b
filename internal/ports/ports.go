package ports

import (
	"context"
	"time"

	"NewsroomStats/internal/domain"
)

// ArticleSource loads article records for aggregation.
type ArticleSource interface {
	Fetch(ctx context.Context, q domain.Query) ([]domain.ArticleRecord, error)
}

// NewsFeed reads the current state of articles from the newsroom system of record.
type NewsFeed interface {
	FetchRange(ctx context.Context, from, to time.Time) ([]domain.ArticleRecord, error)
}

// SnapshotStore keeps the per-article view-count history.
type SnapshotStore interface {
	RecordSnapshot(ctx context.Context, article domain.ArticleRecord, at time.Time) (domain.SnapshotOutcome, error)
	MarkDeleted(ctx context.Context, id string) (bool, error)
}

// Notifier streams digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
