package aggregate

import (
	"sort"
	"strings"

	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/observation"
)

// ArticleResult lists articles per period.
type ArticleResult struct {
	Buckets []domain.ArticleBucket
	Skipped int
}

// Articles lists each period's articles with their views at the period's end,
// most viewed first. GroupBy is ignored.
func (e *Engine) Articles(records []domain.ArticleRecord, opts Options) (ArticleResult, error) {
	if err := opts.Granularity.Validate(); err != nil {
		return ArticleResult{}, err
	}

	var result ArticleResult
	byPeriod := map[string][]domain.ArticleRow{}
	for _, rec := range e.resolver.Apply(records) {
		if rec.PublishedAt.IsZero() {
			result.Skipped++
			continue
		}
		if !opts.accepts(rec) {
			continue
		}
		key := opts.Granularity.Key(rec.PublishedAt)
		byPeriod[key] = append(byPeriod[key], domain.ArticleRow{
			ID:          rec.ID,
			Title:       rec.Title,
			Keyword:     rec.Keyword,
			Category:    rec.Category,
			Department:  rec.DepartmentCode,
			Reporter:    strings.TrimSpace(rec.ReporterName),
			Level:       rec.Level,
			LevelLabel:  LevelLabel(rec.Level),
			PublishedAt: rec.PublishedAt,
			Views:       observation.Extract(rec, opts.Granularity.Cutoff(rec.PublishedAt)),
		})
	}

	keys := make([]string, 0, len(byPeriod))
	for key := range byPeriod {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rows := byPeriod[key]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Views > rows[j].Views })
		result.Buckets = append(result.Buckets, domain.ArticleBucket{PeriodKey: key, Articles: rows})
	}
	return result, nil
}
