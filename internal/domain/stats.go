package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// GroupKey identifies a group inside a period bucket. Reporter is empty when
// grouping by department alone.
type GroupKey struct {
	Department string
	Reporter   string
}

// GroupStats is the rollup of one group within one period.
type GroupStats struct {
	Department       string  `json:"department"`
	Reporter         string  `json:"reporter,omitempty"`
	IsTotal          bool    `json:"isTotal,omitempty"`
	TotalViews       int64   `json:"totalViews"`
	ArticleCount     int64   `json:"articleCount"`
	SelfArticleCount int64   `json:"selfArticleCount"`
	AverageViews     float64 `json:"averageViews"`
	SelfRatio        int     `json:"selfRatio"`
}

// PeriodBucket holds the groups of one week or month. The synthetic total
// row is always Groups[0].
type PeriodBucket struct {
	PeriodKey string       `json:"periodKey"`
	Groups    []GroupStats `json:"groups"`
}

// Total returns the synthetic total row of the bucket.
func (b PeriodBucket) Total() (GroupStats, bool) {
	for _, g := range b.Groups {
		if g.IsTotal {
			return g, true
		}
	}
	return GroupStats{}, false
}

// ArticleRow is a single article as shown in a period's article list.
type ArticleRow struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Keyword     string    `json:"keyword,omitempty"`
	Category    string    `json:"category,omitempty"`
	Department  string    `json:"department"`
	Reporter    string    `json:"reporter,omitempty"`
	Level       string    `json:"level"`
	LevelLabel  string    `json:"levelLabel"`
	PublishedAt time.Time `json:"publishedAt"`
	Views       int64     `json:"views"`
}

// ArticleBucket lists the articles published in one period.
type ArticleBucket struct {
	PeriodKey string       `json:"periodKey"`
	Articles  []ArticleRow `json:"articles"`
}

// SeriesPoint is one period of a chart series with one value per tracked key.
type SeriesPoint struct {
	Period string
	Keys   []string
	Values map[string]int64
}

// MarshalJSON flattens the point into {"period": ..., "<key>": value, ...}
// keeping the tracked key order.
func (p SeriesPoint) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"period":`)
	period, err := json.Marshal(p.Period)
	if err != nil {
		return nil, err
	}
	buf.Write(period)
	for _, key := range p.Keys {
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(p.Values[key], 10))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// LevelPoint counts self-produced versus other articles in a period.
type LevelPoint struct {
	Period       string `json:"period"`
	SelfProduced int64  `json:"selfProduced"`
	Others       int64  `json:"others"`
}

// SnapshotOutcome describes what the snapshot store did with one article.
type SnapshotOutcome string

const (
	SnapshotInserted  SnapshotOutcome = "inserted"
	SnapshotAppended  SnapshotOutcome = "appended"
	SnapshotUnchanged SnapshotOutcome = "unchanged"
)
