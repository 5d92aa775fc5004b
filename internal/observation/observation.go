// Package observation picks the view count attributed to a record for a period.
package observation

import (
	"math"
	"strconv"
	"strings"
	"time"

	"NewsroomStats/internal/domain"
)

// Extractor returns the view count of rec as of cutoff. Implementations never
// fail: malformed data yields 0.
type Extractor interface {
	Extract(rec domain.ArticleRecord, cutoff time.Time) int64
}

// Series reads the latest visit snapshot taken at or before the cutoff.
type Series struct{}

// Extract scans every snapshot; on equal timestamps the later entry wins.
func (Series) Extract(rec domain.ArticleRecord, cutoff time.Time) int64 {
	var (
		best  time.Time
		count int64
		found bool
	)
	for _, snap := range rec.Visits {
		if snap.At.IsZero() || snap.At.After(cutoff) {
			continue
		}
		if !found || !snap.At.Before(best) {
			best = snap.At
			count = snap.Count
			found = true
		}
	}
	return count
}

// Scalar reads the current counter and ignores the cutoff.
type Scalar struct{}

// Extract coerces the stored counter text.
func (Scalar) Extract(rec domain.ArticleRecord, _ time.Time) int64 {
	return Coerce(rec.Ref.Raw())
}

type none struct{}

func (none) Extract(domain.ArticleRecord, time.Time) int64 { return 0 }

// For selects the extractor matching the view-count shape present on rec.
// The series wins when both shapes are present.
func For(rec domain.ArticleRecord) Extractor {
	switch {
	case rec.Visits != nil:
		return Series{}
	case rec.Ref.Present():
		return Scalar{}
	default:
		return none{}
	}
}

// Extract is shorthand for For(rec).Extract(rec, cutoff).
func Extract(rec domain.ArticleRecord, cutoff time.Time) int64 {
	return For(rec).Extract(rec, cutoff)
}

// Coerce parses a plain decimal number. Grouping separators such as "1,234"
// are not accepted and, like any other malformed value, give 0. Fractions are
// rounded to the nearest integer.
func Coerce(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(math.Round(f))
}
