package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"NewsroomStats/internal/domain"
)

type fakeFeed struct {
	from, to time.Time
	articles []domain.ArticleRecord
	err      error
}

func (f *fakeFeed) FetchRange(_ context.Context, from, to time.Time) ([]domain.ArticleRecord, error) {
	f.from, f.to = from, to
	return f.articles, f.err
}

type fakeStore struct {
	outcomes map[string]domain.SnapshotOutcome
	failing  map[string]bool
	deleted  []string
	at       time.Time
}

func (f *fakeStore) RecordSnapshot(_ context.Context, article domain.ArticleRecord, at time.Time) (domain.SnapshotOutcome, error) {
	f.at = at
	if f.failing[article.ID] {
		return "", errors.New("write failed")
	}
	return f.outcomes[article.ID], nil
}

func (f *fakeStore) MarkDeleted(_ context.Context, id string) (bool, error) {
	f.deleted = append(f.deleted, id)
	return true, nil
}

func TestCollectorCountsOutcomes(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 5, 6, 0, 0, 0, time.UTC)
	feed := &fakeFeed{articles: []domain.ArticleRecord{
		{ID: "new"},
		{ID: "old"},
		{ID: "same-day"},
		{ID: "gone", Deleted: true},
		{ID: "broken"},
	}}
	store := &fakeStore{
		outcomes: map[string]domain.SnapshotOutcome{
			"new":      domain.SnapshotInserted,
			"old":      domain.SnapshotAppended,
			"same-day": domain.SnapshotUnchanged,
		},
		failing: map[string]bool{"broken": true},
	}

	collector := NewCollector(CollectorDeps{Feed: feed, Store: store, Window: 48 * time.Hour})
	collector.newID = func() string { return "run-1" }

	stats, err := collector.Collect(context.Background(), now)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	want := CollectStats{RunID: "run-1", Fetched: 5, Inserted: 1, Appended: 1, Unchanged: 1, Deleted: 1, Failed: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
	if !feed.from.Equal(now.Add(-48*time.Hour)) || !feed.to.Equal(now) {
		t.Fatalf("unexpected window %s..%s", feed.from, feed.to)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "gone" {
		t.Fatalf("unexpected deletions: %v", store.deleted)
	}
	if !store.at.Equal(now) {
		t.Fatalf("snapshots must be stamped with the run time")
	}
}

func TestCollectorFeedError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	collector := NewCollector(CollectorDeps{Feed: &fakeFeed{err: boom}, Store: &fakeStore{}})
	if _, err := collector.Collect(context.Background(), time.Now()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped feed error, got %v", err)
	}
}

func TestCollectorStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	collector := NewCollector(CollectorDeps{
		Feed:  &fakeFeed{articles: []domain.ArticleRecord{{ID: "a"}}},
		Store: &fakeStore{outcomes: map[string]domain.SnapshotOutcome{}},
	})
	if _, err := collector.Collect(ctx, time.Now()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCollectorRequiresDeps(t *testing.T) {
	t.Parallel()

	if _, err := NewCollector(CollectorDeps{}).Collect(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected configuration error")
	}
}

type fakeDriver struct {
	job     func(time.Time)
	stopped bool
}

func (f *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	f.job = job
	return nil
}

func (f *fakeDriver) Stop(context.Context) error {
	f.stopped = true
	return nil
}

func TestSchedulerRunsCollectorOnTrigger(t *testing.T) {
	t.Parallel()

	feed := &fakeFeed{articles: []domain.ArticleRecord{{ID: "a"}}}
	store := &fakeStore{outcomes: map[string]domain.SnapshotOutcome{"a": domain.SnapshotInserted}}
	driver := &fakeDriver{}
	sched := NewScheduler(driver, NewCollector(CollectorDeps{Feed: feed, Store: store}), nil)

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if driver.job == nil {
		t.Fatalf("job was not registered")
	}

	trigger := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	driver.job(trigger)
	if !store.at.Equal(trigger) {
		t.Fatalf("snapshot time = %s, want %s", store.at, trigger)
	}

	if err := sched.Stop(context.Background()); err != nil || !driver.stopped {
		t.Fatalf("stop: %v (stopped=%v)", err, driver.stopped)
	}
}
