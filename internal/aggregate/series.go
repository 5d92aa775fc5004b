package aggregate

import (
	"time"

	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/period"
)

// AllKey tracks the total row in a chart series.
const AllKey = "ALL"

// SeriesOptions restricts a series to a trailing window. TrailingMonths <= 0
// keeps every bucket. A zero Now means time.Now().
type SeriesOptions struct {
	TrailingMonths int
	Now            time.Time
}

// ToSeries flattens buckets into one point per period with the total views of
// each tracked key. AllKey reads the total row; any other key sums the rows of
// that department. Absent keys are 0. Bucket order is preserved.
func ToSeries(buckets []domain.PeriodBucket, trackedKeys []string, opts SeriesOptions) []domain.SeriesPoint {
	since := windowStart(opts)
	points := make([]domain.SeriesPoint, 0, len(buckets))
	for _, bucket := range buckets {
		if since != "" && bucket.PeriodKey < since {
			continue
		}
		point := domain.SeriesPoint{
			Period: bucket.PeriodKey,
			Keys:   append([]string(nil), trackedKeys...),
			Values: make(map[string]int64, len(trackedKeys)),
		}
		for _, key := range trackedKeys {
			point.Values[key] = seriesValue(bucket, key)
		}
		points = append(points, point)
	}
	return points
}

func seriesValue(bucket domain.PeriodBucket, key string) int64 {
	var total int64
	for _, g := range bucket.Groups {
		if key == AllKey {
			if g.IsTotal {
				return g.TotalViews
			}
			continue
		}
		if !g.IsTotal && g.Department == key {
			total += g.TotalViews
		}
	}
	return total
}

func windowStart(opts SeriesOptions) string {
	if opts.TrailingMonths <= 0 {
		return ""
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	return now.UTC().AddDate(0, -opts.TrailingMonths, 0).Format(period.KeyLayout)
}

// Levels counts self-produced and other articles per bucket from the total rows.
func Levels(buckets []domain.PeriodBucket) []domain.LevelPoint {
	points := make([]domain.LevelPoint, 0, len(buckets))
	for _, bucket := range buckets {
		total, _ := bucket.Total()
		points = append(points, domain.LevelPoint{
			Period:       bucket.PeriodKey,
			SelfProduced: total.SelfArticleCount,
			Others:       total.ArticleCount - total.SelfArticleCount,
		})
	}
	return points
}
