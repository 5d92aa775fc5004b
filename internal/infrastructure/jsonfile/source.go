// Package jsonfile serves article records from an exported JSON array.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/observation"
	"NewsroomStats/internal/ports"
	"NewsroomStats/internal/textclean"
)

// fileRecord accepts both the API's camelCase names and the raw export names.
type fileRecord struct {
	ID             json.RawMessage `json:"id"`
	NewsKey        json.RawMessage `json:"newskey"`
	PublishedAt    string          `json:"publishedAt"`
	NewsDate       string          `json:"newsdate"`
	DepartmentCode string          `json:"departmentCode"`
	CodeName       string          `json:"code_name"`
	DepartmentID   json.RawMessage `json:"departmentId"`
	BuseID         json.RawMessage `json:"buseid"`
	ReporterName   string          `json:"reporterName"`
	Byline         string          `json:"byline_gijaname"`
	Title          string          `json:"title"`
	NewsTitle      string          `json:"newstitle"`
	Category       string          `json:"category"`
	Keyword        string          `json:"keyword"`
	Level          string          `json:"level"`
	Deleted        bool            `json:"deleted"`
	Ref            domain.Counter  `json:"ref"`
	Visits         []fileVisit     `json:"visits"`
}

type fileVisit struct {
	Timestamp string         `json:"timestamp"`
	Datetime  string         `json:"datetime"`
	Count     domain.Counter `json:"count"`
	Visits    domain.Counter `json:"visits"`
}

// Source reads the whole file on every fetch so edits are picked up.
type Source struct {
	path string
}

var _ ports.ArticleSource = (*Source)(nil)

// NewSource points at a JSON export.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Name identifies the source in the registry.
func (s *Source) Name() string { return "jsonfile" }

// Fetch filters the file's records by the query window and limit, newest first.
func (s *Source) Fetch(_ context.Context, q domain.Query) ([]domain.ArticleRecord, error) {
	if s.path == "" {
		return nil, fmt.Errorf("json source path is not configured")
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var entries []fileRecord
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	records := make([]domain.ArticleRecord, 0, len(entries))
	for _, entry := range entries {
		rec := entry.toRecord()
		// Undated records are kept so the aggregation can report them as skipped.
		if !rec.PublishedAt.IsZero() {
			if !q.From.IsZero() && rec.PublishedAt.Before(q.From) {
				continue
			}
			if !q.To.IsZero() && rec.PublishedAt.After(q.To) {
				continue
			}
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublishedAt.After(records[j].PublishedAt)
	})
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records, nil
}

func (f fileRecord) toRecord() domain.ArticleRecord {
	rec := domain.ArticleRecord{
		ID:             firstNonEmpty(rawText(f.ID), rawText(f.NewsKey)),
		DepartmentCode: textclean.Clean(firstNonEmpty(f.DepartmentCode, f.CodeName)),
		ReporterName:   textclean.Clean(firstNonEmpty(f.ReporterName, f.Byline)),
		Title:          textclean.Clean(firstNonEmpty(f.Title, f.NewsTitle)),
		Category:       textclean.Clean(f.Category),
		Keyword:        textclean.Clean(f.Keyword),
		Level:          strings.TrimSpace(f.Level),
		Deleted:        f.Deleted,
		ViewCount:      domain.ViewCount{Ref: f.Ref},
	}
	if rec.Level == "" {
		rec.Level = domain.DefaultLevel
	}
	if id, err := strconv.Atoi(firstNonEmpty(rawText(f.DepartmentID), rawText(f.BuseID))); err == nil {
		rec.DepartmentID = id
	}
	if published, ok := domain.ParseTimestamp(firstNonEmpty(f.PublishedAt, f.NewsDate)); ok {
		rec.PublishedAt = published
	}
	if f.Visits != nil {
		rec.Visits = make([]domain.VisitSnapshot, 0, len(f.Visits))
		for _, v := range f.Visits {
			at, ok := domain.ParseTimestamp(firstNonEmpty(v.Timestamp, v.Datetime))
			if !ok {
				continue
			}
			count := v.Count
			if !count.Present() {
				count = v.Visits
			}
			rec.Visits = append(rec.Visits, domain.VisitSnapshot{At: at, Count: observation.Coerce(count.Raw())})
		}
	}
	return rec
}

// rawText returns a JSON string or number as text.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
