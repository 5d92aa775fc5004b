// Package period maps timestamps to calendar week and month buckets.
//
// Weeks run Sunday through Saturday and are keyed by their Saturday; months
// are keyed by their first day. All calendar fields are read in UTC so a
// timestamp always lands in the same bucket regardless of the host zone.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// KeyLayout is the format of every period key.
const KeyLayout = "2006-01-02"

// ErrInvalidGranularity is returned for granularities other than week and month.
var ErrInvalidGranularity = errors.New("invalid period granularity")

// Granularity selects weekly or monthly buckets.
type Granularity string

const (
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ParseGranularity accepts "week"/"weekly" and "month"/"monthly".
func ParseGranularity(value string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGranularity, value)
	}
}

// Validate returns ErrInvalidGranularity for unknown values.
func (g Granularity) Validate() error {
	if g == Week || g == Month {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidGranularity, string(g))
}

// Start returns the first instant of the period containing t.
func (g Granularity) Start(t time.Time) time.Time {
	if g == Month {
		return MonthStart(t)
	}
	return WeekStart(t)
}

// Key returns the period key of t.
func (g Granularity) Key(t time.Time) string {
	if g == Month {
		return MonthKey(t)
	}
	return WeekKey(t)
}

// Cutoff returns the last instant of the period containing t.
func (g Granularity) Cutoff(t time.Time) time.Time {
	if g == Month {
		return MonthCutoff(t)
	}
	return WeekCutoff(t)
}

func midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns Sunday 00:00 UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	day := midnight(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeekEnding returns Saturday 00:00 UTC of the week containing t.
func WeekEnding(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 6)
}

// WeekKey formats the Saturday of the week containing t.
func WeekKey(t time.Time) string {
	return WeekEnding(t).Format(KeyLayout)
}

// WeekCutoff is the last instant of the week containing t.
func WeekCutoff(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// MonthStart returns the first day of the month containing t at 00:00 UTC.
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthKey formats the first day of the month containing t.
func MonthKey(t time.Time) string {
	return MonthStart(t).Format(KeyLayout)
}

// MonthCutoff is the last instant of the month containing t.
func MonthCutoff(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// ParseKey parses a period key back into the instant it names.
func ParseKey(key string) (time.Time, error) {
	t, err := time.Parse(KeyLayout, strings.TrimSpace(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse period key %q: %w", key, err)
	}
	return t, nil
}

// Range is a half-open [Start, End) span with the key of the period.
type Range struct {
	Key   string
	Start time.Time
	End   time.Time
}

// Ranges lists every period between from and to inclusive, oldest first.
func (g Granularity) Ranges(from, to time.Time) []Range {
	if to.Before(from) {
		return nil
	}
	var ranges []Range
	for start := g.Start(from); !start.After(to); {
		var next time.Time
		if g == Month {
			next = start.AddDate(0, 1, 0)
		} else {
			next = start.AddDate(0, 0, 7)
		}
		ranges = append(ranges, Range{Key: g.Key(start), Start: start, End: next})
		start = next
	}
	return ranges
}
