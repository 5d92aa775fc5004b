package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"NewsroomStats/internal/aggregate"
	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/period"
	"NewsroomStats/internal/ports"
)

// ErrPeriodNotFound is returned when a requested period has no articles.
var ErrPeriodNotFound = errors.New("period not found")

// DashboardDeps wires the record source and presentation defaults.
type DashboardDeps struct {
	Source            ports.ArticleSource
	Engine            *aggregate.Engine
	CacheTTL          time.Duration
	KeepTotalOnFilter bool
	TrackedKeys       []string
	ChartMonths       int
	ExcludeCategories []string
	Logger            *slog.Logger
	Now               func() time.Time
}

// Dashboard answers the table and chart queries of the presentation layer.
type Dashboard struct {
	source            ports.ArticleSource
	engine            *aggregate.Engine
	cache             *recordCache
	keepTotalOnFilter bool
	trackedKeys       []string
	chartMonths       int
	excludeCategories []string
	logger            *slog.Logger
	now               func() time.Time
}

// NewDashboard constructs the use case.
func NewDashboard(deps DashboardDeps) *Dashboard {
	engine := deps.Engine
	if engine == nil {
		engine = aggregate.NewEngine(nil)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	tracked := deps.TrackedKeys
	if len(tracked) == 0 {
		tracked = []string{aggregate.AllKey}
	}
	return &Dashboard{
		source:            deps.Source,
		engine:            engine,
		cache:             newRecordCache(deps.CacheTTL, now),
		keepTotalOnFilter: deps.KeepTotalOnFilter,
		trackedKeys:       tracked,
		chartMonths:       deps.ChartMonths,
		excludeCategories: deps.ExcludeCategories,
		logger:            deps.Logger,
		now:               now,
	}
}

// TrackedKeys returns the default chart series keys.
func (d *Dashboard) TrackedKeys() []string {
	return append([]string(nil), d.trackedKeys...)
}

// ChartMonths returns the default trailing chart window.
func (d *Dashboard) ChartMonths() int { return d.chartMonths }

// Records returns the source records for q, served from cache while fresh.
// Callers must treat the returned records as read-only.
func (d *Dashboard) Records(ctx context.Context, q domain.Query) ([]domain.ArticleRecord, error) {
	if records, ok := d.cache.get(q); ok {
		d.debug("records served from cache", "count", len(records))
		return records, nil
	}
	if d.source == nil {
		return nil, fmt.Errorf("article source is not configured")
	}

	records, err := d.source.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	d.cache.put(q, records)
	return records, nil
}

// Buckets aggregates the records of q.
func (d *Dashboard) Buckets(ctx context.Context, q domain.Query, opts aggregate.Options) ([]domain.PeriodBucket, error) {
	records, err := d.Records(ctx, q)
	if err != nil {
		return nil, err
	}
	result, err := d.engine.Aggregate(records, opts)
	if err != nil {
		return nil, err
	}
	if result.Skipped > 0 {
		d.warn("records without a usable publish date skipped", "skipped", result.Skipped)
	}
	return result.Buckets, nil
}

// TableRequest carries the UI selections of a ranking table.
type TableRequest struct {
	Query       domain.Query
	Granularity period.Granularity
	GroupBy     aggregate.GroupBy
	// Period selects a bucket; empty means the latest one.
	Period     string
	Department string
	Sort       aggregate.Column
	Direction  aggregate.Direction
}

// TableView is one bucket ready for display.
type TableView struct {
	Granularity period.Granularity  `json:"granularity"`
	GroupBy     aggregate.GroupBy   `json:"groupBy"`
	Period      string              `json:"period"`
	Periods     []string            `json:"periods"`
	Department  string              `json:"department"`
	Departments []string            `json:"departments"`
	Sort        aggregate.Column    `json:"sort,omitempty"`
	Direction   aggregate.Direction `json:"direction,omitempty"`
	Groups      []domain.GroupStats `json:"groups"`
}

// Table selects, filters and sorts one bucket.
func (d *Dashboard) Table(ctx context.Context, req TableRequest) (TableView, error) {
	records, err := d.Records(ctx, req.Query)
	if err != nil {
		return TableView{}, err
	}
	result, err := d.engine.Aggregate(records, aggregate.Options{Granularity: req.Granularity, GroupBy: req.GroupBy})
	if err != nil {
		return TableView{}, err
	}
	if result.Skipped > 0 {
		d.warn("records without a usable publish date skipped", "skipped", result.Skipped)
	}

	dept := req.Department
	if dept == "" {
		dept = aggregate.AllDepartments
	}
	view := TableView{
		Granularity: req.Granularity,
		GroupBy:     req.GroupBy,
		Periods:     aggregate.PeriodKeys(result.Buckets),
		Department:  dept,
		Departments: d.engine.Resolver().Options(records, aggregate.AllDepartments),
		Sort:        req.Sort,
		Direction:   req.Direction,
		Groups:      []domain.GroupStats{},
	}
	if len(result.Buckets) == 0 {
		if req.Period != "" {
			return TableView{}, fmt.Errorf("%w: %s", ErrPeriodNotFound, req.Period)
		}
		return view, nil
	}

	view.Period = req.Period
	if view.Period == "" {
		view.Period = view.Periods[0]
	}
	bucket, ok := aggregate.FindBucket(result.Buckets, view.Period)
	if !ok {
		return TableView{}, fmt.Errorf("%w: %s", ErrPeriodNotFound, view.Period)
	}

	groups := aggregate.FilterByDepartment(bucket.Groups, dept, d.keepTotalOnFilter)
	groups, err = aggregate.SortGroups(groups, req.Sort, req.Direction)
	if err != nil {
		return TableView{}, err
	}
	view.Groups = groups
	return view, nil
}

// Series builds the chart series of the tracked keys. Excluded categories
// are left out. Nil keys and a negative months value use the defaults.
func (d *Dashboard) Series(ctx context.Context, q domain.Query, granularity period.Granularity, keys []string, months int) ([]domain.SeriesPoint, error) {
	if keys == nil {
		keys = d.trackedKeys
	}
	if months < 0 {
		months = d.chartMonths
	}
	buckets, err := d.Buckets(ctx, q, aggregate.Options{
		Granularity:       granularity,
		GroupBy:           aggregate.ByDepartment,
		ExcludeCategories: d.excludeCategories,
	})
	if err != nil {
		return nil, err
	}
	return aggregate.ToSeries(buckets, keys, aggregate.SeriesOptions{TrailingMonths: months, Now: d.now()}), nil
}

// Levels counts self-produced versus other articles per period.
func (d *Dashboard) Levels(ctx context.Context, q domain.Query, granularity period.Granularity) ([]domain.LevelPoint, error) {
	buckets, err := d.Buckets(ctx, q, aggregate.Options{Granularity: granularity, GroupBy: aggregate.ByDepartment})
	if err != nil {
		return nil, err
	}
	return aggregate.Levels(buckets), nil
}

// Articles lists one period's articles, optionally restricted to a department.
func (d *Dashboard) Articles(ctx context.Context, q domain.Query, granularity period.Granularity, key, dept string) (domain.ArticleBucket, error) {
	records, err := d.Records(ctx, q)
	if err != nil {
		return domain.ArticleBucket{}, err
	}
	result, err := d.engine.Articles(records, aggregate.Options{Granularity: granularity})
	if err != nil {
		return domain.ArticleBucket{}, err
	}
	for _, bucket := range result.Buckets {
		if bucket.PeriodKey != key {
			continue
		}
		if dept == "" || dept == aggregate.AllDepartments {
			return bucket, nil
		}
		filtered := domain.ArticleBucket{PeriodKey: key, Articles: []domain.ArticleRow{}}
		for _, row := range bucket.Articles {
			if row.Department == dept {
				filtered.Articles = append(filtered.Articles, row)
			}
		}
		return filtered, nil
	}
	return domain.ArticleBucket{}, fmt.Errorf("%w: %s", ErrPeriodNotFound, key)
}

// Departments lists the department filter options.
func (d *Dashboard) Departments(ctx context.Context, q domain.Query) ([]string, error) {
	records, err := d.Records(ctx, q)
	if err != nil {
		return nil, err
	}
	return d.engine.Resolver().Options(records, aggregate.AllDepartments), nil
}

func (d *Dashboard) debug(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}

func (d *Dashboard) warn(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}

type cacheEntry struct {
	records []domain.ArticleRecord
	expires time.Time
}

// recordCache keeps fetched records per query for a fixed TTL. Expired
// entries are swept on every put.
type recordCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func newRecordCache(ttl time.Duration, now func() time.Time) *recordCache {
	return &recordCache{ttl: ttl, now: now, entries: map[string]cacheEntry{}}
}

func cacheKey(q domain.Query) string {
	return fmt.Sprintf("%s|%s|%d", q.From.UTC().Format(time.RFC3339Nano), q.To.UTC().Format(time.RFC3339Nano), q.Limit)
}

func (c *recordCache) get(q domain.Query) ([]domain.ArticleRecord, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(q)
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.records, true
}

func (c *recordCache) put(q domain.Query, records []domain.ArticleRecord) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, key)
		}
	}
	c.entries[cacheKey(q)] = cacheEntry{records: records, expires: now.Add(c.ttl)}
}
