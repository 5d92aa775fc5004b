package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"NewsroomStats/internal/aggregate"
	"NewsroomStats/internal/department"
	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/period"
)

type fakeSource struct {
	mu      sync.Mutex
	records []domain.ArticleRecord
	calls   int
	last    domain.Query
	err     error
}

func (f *fakeSource) Fetch(_ context.Context, q domain.Query) ([]domain.ArticleRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = q
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func ref(id, dept string, published time.Time, views int64, level string) domain.ArticleRecord {
	return domain.ArticleRecord{
		ID:             id,
		DepartmentCode: dept,
		PublishedAt:    published,
		Level:          level,
		ViewCount:      domain.ViewCount{Ref: domain.CounterOf(views)},
	}
}

func sampleRecords() []domain.ArticleRecord {
	return []domain.ArticleRecord{
		ref("1", "정치", time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC), 100, "1"),
		ref("2", "디지털뉴스부", time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC), 300, "5"),
		ref("3", "정치", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), 40, "5"),
		ref("4", "경제", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), 60, "1"),
		{ID: "5", DepartmentCode: "운세", Category: "운세", PublishedAt: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), ViewCount: domain.ViewCount{Ref: domain.CounterOf(1000)}},
	}
}

func newTestDashboard(src *fakeSource, now time.Time) *Dashboard {
	return NewDashboard(DashboardDeps{
		Source:            src,
		Engine:            aggregate.NewEngine(department.NewResolver(department.Tables{}, "")),
		CacheTTL:          5 * time.Minute,
		KeepTotalOnFilter: true,
		TrackedKeys:       []string{aggregate.AllKey, "디지털뉴스부"},
		ExcludeCategories: []string{"운세"},
		Now:               func() time.Time { return now },
	})
}

func TestDashboardTableDefaultsToLatestPeriod(t *testing.T) {
	t.Parallel()

	d := newTestDashboard(&fakeSource{records: sampleRecords()}, time.Now())
	view, err := d.Table(context.Background(), TableRequest{
		Granularity: period.Week,
		GroupBy:     aggregate.ByDepartment,
		Sort:        aggregate.ColumnTotalViews,
		Direction:   aggregate.Descending,
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if view.Period != "2025-03-08" {
		t.Fatalf("expected latest week, got %s", view.Period)
	}
	if len(view.Periods) != 2 || view.Periods[1] != "2025-03-01" {
		t.Fatalf("unexpected periods: %v", view.Periods)
	}
	if !view.Groups[0].IsTotal || view.Groups[1].Department != "운세" || view.Groups[2].Department != "경제" {
		t.Fatalf("unexpected order: %+v", view.Groups)
	}
	if view.Departments[0] != aggregate.AllDepartments {
		t.Fatalf("unexpected departments: %v", view.Departments)
	}
}

func TestDashboardTableFilterAndUnknownPeriod(t *testing.T) {
	t.Parallel()

	d := newTestDashboard(&fakeSource{records: sampleRecords()}, time.Now())
	view, err := d.Table(context.Background(), TableRequest{
		Granularity: period.Week,
		GroupBy:     aggregate.ByDepartment,
		Period:      "2025-03-01",
		Department:  "정치",
	})
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if len(view.Groups) != 2 || !view.Groups[0].IsTotal || view.Groups[1].TotalViews != 100 {
		t.Fatalf("unexpected groups: %+v", view.Groups)
	}

	_, err = d.Table(context.Background(), TableRequest{Granularity: period.Week, GroupBy: aggregate.ByDepartment, Period: "1999-01-02"})
	if !errors.Is(err, ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}

func TestDashboardCachesRecords(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	clock := now
	src := &fakeSource{records: sampleRecords()}
	d := newTestDashboard(src, now)
	d.cache.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if _, err := d.Records(context.Background(), domain.Query{}); err != nil {
			t.Fatalf("records: %v", err)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one fetch, got %d", src.calls)
	}

	clock = now.Add(6 * time.Minute)
	if _, err := d.Records(context.Background(), domain.Query{}); err != nil {
		t.Fatalf("records: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expired entry must refetch, got %d calls", src.calls)
	}
}

func TestDashboardCacheSweepsExpiredEntries(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	clock := now
	d := newTestDashboard(&fakeSource{records: sampleRecords()}, now)
	d.cache.now = func() time.Time { return clock }

	for i := 0; i < 100; i++ {
		q := domain.Query{From: now.AddDate(0, 0, -i), To: now, Limit: i}
		if _, err := d.Records(context.Background(), q); err != nil {
			t.Fatalf("records: %v", err)
		}
	}
	if got := len(d.cache.entries); got != 100 {
		t.Fatalf("expected 100 cached queries, got %d", got)
	}

	clock = now.Add(time.Hour)
	if _, err := d.Records(context.Background(), domain.Query{Limit: 1000}); err != nil {
		t.Fatalf("records: %v", err)
	}
	if got := len(d.cache.entries); got != 1 {
		t.Fatalf("expired entries must be dropped, %d left", got)
	}
}

func TestDashboardSourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	d := newTestDashboard(&fakeSource{err: boom}, time.Now())
	if _, err := d.Records(context.Background(), domain.Query{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestDashboardSeriesExcludesCategories(t *testing.T) {
	t.Parallel()

	d := newTestDashboard(&fakeSource{records: sampleRecords()}, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	points, err := d.Series(context.Background(), domain.Query{}, period.Week, nil, -1)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Values["디지털뉴스부"] != 300 || points[0].Values[aggregate.AllKey] != 400 {
		t.Fatalf("unexpected first point: %+v", points[0].Values)
	}
	if points[1].Values[aggregate.AllKey] != 100 {
		t.Fatalf("excluded category leaked into totals: %+v", points[1].Values)
	}
}

func TestDashboardLevelsAndArticles(t *testing.T) {
	t.Parallel()

	d := newTestDashboard(&fakeSource{records: sampleRecords()}, time.Now())
	levels, err := d.Levels(context.Background(), domain.Query{}, period.Month)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	if len(levels) != 2 || levels[1].SelfProduced != 1 || levels[1].Others != 2 {
		t.Fatalf("unexpected levels: %+v", levels)
	}

	bucket, err := d.Articles(context.Background(), domain.Query{}, period.Week, "2025-03-01", "정치")
	if err != nil {
		t.Fatalf("articles: %v", err)
	}
	if len(bucket.Articles) != 1 || bucket.Articles[0].ID != "1" {
		t.Fatalf("unexpected articles: %+v", bucket.Articles)
	}

	if _, err := d.Articles(context.Background(), domain.Query{}, period.Week, "2020-01-04", ""); !errors.Is(err, ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	f.messages = append(f.messages, digest)
	return nil
}

func TestDigestPublishesLastWeek(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	notifier := &fakeNotifier{}
	src := &fakeSource{records: sampleRecords()}
	digest := NewDigest(newTestDashboard(src, now), notifier, 5, nil)

	if err := digest.Publish(context.Background(), now); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected one message")
	}
	if !src.last.From.Equal(time.Date(2025, 2, 23, 0, 0, 0, 0, time.UTC)) ||
		!src.last.To.Equal(time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)) {
		t.Fatalf("unexpected digest window %s - %s", src.last.From, src.last.To)
	}
	msg := notifier.messages[0]
	if !strings.Contains(msg, "2025-03-01") || !strings.Contains(msg, "1. 디지털뉴스부") {
		t.Fatalf("unexpected digest: %s", msg)
	}
}
