// Package aggregate groups article records into period buckets and derives
// the tables and chart series built on top of them.
package aggregate

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"NewsroomStats/internal/department"
	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/observation"
	"NewsroomStats/internal/period"
)

const (
	// TotalDepartment labels the synthetic row of every bucket.
	TotalDepartment = "전체부서"
	// TotalReporter labels the synthetic row when grouping by reporter.
	TotalReporter = "전체기자"
	// NoReporter groups records without a byline.
	NoReporter = "-"
)

// ErrInvalidGroupBy is returned for unknown grouping dimensions.
var ErrInvalidGroupBy = errors.New("invalid group by")

// ErrInvalidGranularity mirrors period.ErrInvalidGranularity for callers that
// only import this package.
var ErrInvalidGranularity = period.ErrInvalidGranularity

// GroupBy selects the grouping dimension inside a bucket.
type GroupBy string

const (
	ByDepartment GroupBy = "department"
	ByReporter   GroupBy = "reporter"
)

// ParseGroupBy accepts "department" and "reporter" (or "department+reporter").
func ParseGroupBy(value string) (GroupBy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "department", "dept":
		return ByDepartment, nil
	case "reporter", "department+reporter":
		return ByReporter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGroupBy, value)
	}
}

// Options configures one aggregation call.
type Options struct {
	Granularity period.Granularity
	GroupBy     GroupBy
	// From and To bound PublishedAt inclusively; zero values leave the side open.
	From time.Time
	To   time.Time
	// ExcludeCategories drops records whose category matches exactly.
	ExcludeCategories []string
}

func (o Options) validate() error {
	if err := o.Granularity.Validate(); err != nil {
		return err
	}
	if o.GroupBy != ByDepartment && o.GroupBy != ByReporter {
		return fmt.Errorf("%w: %q", ErrInvalidGroupBy, string(o.GroupBy))
	}
	if !o.From.IsZero() && !o.To.IsZero() && o.To.Before(o.From) {
		return fmt.Errorf("date range ends before it starts: %s > %s", o.From.Format(time.RFC3339), o.To.Format(time.RFC3339))
	}
	return nil
}

func (o Options) accepts(rec domain.ArticleRecord) bool {
	if !o.From.IsZero() && rec.PublishedAt.Before(o.From) {
		return false
	}
	if !o.To.IsZero() && rec.PublishedAt.After(o.To) {
		return false
	}
	for _, category := range o.ExcludeCategories {
		if category != "" && strings.TrimSpace(rec.Category) == category {
			return false
		}
	}
	return true
}

func (o Options) groupKey(dept string, rec domain.ArticleRecord) domain.GroupKey {
	if o.GroupBy == ByDepartment {
		return domain.GroupKey{Department: dept}
	}
	reporter := strings.TrimSpace(rec.ReporterName)
	if reporter == "" {
		reporter = NoReporter
	}
	return domain.GroupKey{Department: dept, Reporter: reporter}
}

// Result is the output of Aggregate. Skipped counts records dropped because
// their publish time was missing or unparseable.
type Result struct {
	Buckets []domain.PeriodBucket
	Skipped int
}

// Engine aggregates records. It holds no mutable state and may be shared.
type Engine struct {
	resolver *department.Resolver
}

// NewEngine builds an engine around a department resolver. A nil resolver
// uses empty lookup tables.
func NewEngine(resolver *department.Resolver) *Engine {
	if resolver == nil {
		resolver = department.NewResolver(department.Tables{}, "")
	}
	return &Engine{resolver: resolver}
}

// Resolver exposes the department resolver used by the engine.
func (e *Engine) Resolver() *department.Resolver { return e.resolver }

type bucketAccumulator struct {
	order  []domain.GroupKey
	groups map[domain.GroupKey]*domain.GroupStats
}

func (b *bucketAccumulator) add(key domain.GroupKey, views int64, self bool) {
	stats, ok := b.groups[key]
	if !ok {
		stats = &domain.GroupStats{Department: key.Department, Reporter: key.Reporter}
		b.groups[key] = stats
		b.order = append(b.order, key)
	}
	stats.TotalViews += views
	stats.ArticleCount++
	if self {
		stats.SelfArticleCount++
	}
}

// Aggregate partitions records into period buckets and rolls each group up.
// Each record contributes its view count as of the end of its own period.
// Departments are resolved on a working copy; records is not modified.
func (e *Engine) Aggregate(records []domain.ArticleRecord, opts Options) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, err
	}

	var result Result
	buckets := map[string]*bucketAccumulator{}
	for _, rec := range e.resolver.Apply(records) {
		if rec.PublishedAt.IsZero() {
			result.Skipped++
			continue
		}
		if !opts.accepts(rec) {
			continue
		}

		key := opts.Granularity.Key(rec.PublishedAt)
		acc, ok := buckets[key]
		if !ok {
			acc = &bucketAccumulator{groups: map[domain.GroupKey]*domain.GroupStats{}}
			buckets[key] = acc
		}

		views := observation.Extract(rec, opts.Granularity.Cutoff(rec.PublishedAt))
		acc.add(opts.groupKey(rec.DepartmentCode, rec), views, rec.SelfProduced())
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result.Buckets = make([]domain.PeriodBucket, 0, len(keys))
	for _, key := range keys {
		result.Buckets = append(result.Buckets, buildBucket(key, buckets[key], opts.GroupBy))
	}
	return result, nil
}

func buildBucket(key string, acc *bucketAccumulator, groupBy GroupBy) domain.PeriodBucket {
	total := domain.GroupStats{Department: TotalDepartment, IsTotal: true}
	if groupBy == ByReporter {
		total.Reporter = TotalReporter
	}

	groups := make([]domain.GroupStats, 0, len(acc.order)+1)
	groups = append(groups, total)
	for _, gk := range acc.order {
		stats := *acc.groups[gk]
		finalize(&stats)
		total.TotalViews += stats.TotalViews
		total.ArticleCount += stats.ArticleCount
		total.SelfArticleCount += stats.SelfArticleCount
		groups = append(groups, stats)
	}
	finalize(&total)
	groups[0] = total

	return domain.PeriodBucket{PeriodKey: key, Groups: groups}
}

func finalize(stats *domain.GroupStats) {
	if stats.ArticleCount == 0 {
		stats.AverageViews = 0
		stats.SelfRatio = 0
		return
	}
	count := float64(stats.ArticleCount)
	stats.AverageViews = RoundTo2(float64(stats.TotalViews) / count)
	stats.SelfRatio = int(math.Round(float64(stats.SelfArticleCount) / count * 100))
}

// RoundTo2 rounds half away from zero to two decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FindBucket returns the bucket with the given key.
func FindBucket(buckets []domain.PeriodBucket, key string) (domain.PeriodBucket, bool) {
	i := sort.Search(len(buckets), func(i int) bool { return buckets[i].PeriodKey >= key })
	if i < len(buckets) && buckets[i].PeriodKey == key {
		return buckets[i], true
	}
	return domain.PeriodBucket{}, false
}

// PeriodKeys lists bucket keys newest first, as offered by period selectors.
func PeriodKeys(buckets []domain.PeriodBucket) []string {
	keys := make([]string, len(buckets))
	for i, b := range buckets {
		keys[len(buckets)-1-i] = b.PeriodKey
	}
	return keys
}
