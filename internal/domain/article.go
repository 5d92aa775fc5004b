package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// DefaultLevel is assigned by source adapters when a record carries no level.
const DefaultLevel = "5"

// SelfProducedLevel marks articles written in-house.
const SelfProducedLevel = "1"

// ArticleRecord is one article as supplied by an article source.
type ArticleRecord struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"publishedAt"`
	DepartmentCode string    `json:"departmentCode,omitempty"`
	DepartmentID   int       `json:"departmentId,omitempty"`
	ReporterName   string    `json:"reporterName,omitempty"`
	Title          string    `json:"title,omitempty"`
	Category       string    `json:"category,omitempty"`
	Keyword        string    `json:"keyword,omitempty"`
	Level          string    `json:"level,omitempty"`
	Deleted        bool      `json:"deleted,omitempty"`
	ViewCount
}

// ViewCount holds whichever view-count shape the record was stored with.
// Visits == nil means the series is absent; an empty non-nil slice means the
// series exists but has no snapshots yet.
type ViewCount struct {
	Visits []VisitSnapshot `json:"visits,omitempty"`
	Ref    Counter         `json:"ref"`
}

// VisitSnapshot is a view count observed at a point in time.
type VisitSnapshot struct {
	At    time.Time `json:"timestamp"`
	Count int64     `json:"count"`
}

// SelfProduced reports whether the record counts towards the self ratio.
func (r ArticleRecord) SelfProduced() bool {
	return r.Level == SelfProducedLevel
}

// Counter is a scalar view count kept in its raw textual form, since older
// records store it as a string.
type Counter struct {
	raw string
	set bool
}

// NewCounter wraps a raw counter value.
func NewCounter(raw string) Counter {
	return Counter{raw: raw, set: true}
}

// CounterOf wraps an already numeric counter value.
func CounterOf(n int64) Counter {
	return NewCounter(strconv.FormatInt(n, 10))
}

// Present reports whether the counter field existed on the record.
func (c Counter) Present() bool { return c.set }

// Raw returns the stored text.
func (c Counter) Raw() string { return c.raw }

// MarshalJSON writes numbers as JSON numbers and everything else as strings.
func (c Counter) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	trimmed := strings.TrimSpace(c.raw)
	if trimmed != "" && (trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9')) && json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}
	return json.Marshal(c.raw)
}

// UnmarshalJSON accepts numbers, strings and null.
func (c *Counter) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Counter{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = NewCounter(s)
		return nil
	}
	*c = NewCounter(string(data))
	return nil
}

// Query bounds a fetch from an article source. Zero values mean "use the
// source default".
type Query struct {
	From  time.Time
	To    time.Time
	Limit int
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102",
}

// ParseTimestamp parses the timestamp formats seen in exports and legacy
// tables. Values without a zone are read as UTC.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
