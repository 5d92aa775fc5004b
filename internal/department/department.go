// Package department resolves the display department of an article.
package department

import (
	"sort"
	"strings"

	"NewsroomStats/internal/domain"
)

// Unknown is the label given to records no lookup could place.
const Unknown = "미분류"

// unknownMarkers are table values that mean "no department" in the source data.
var unknownMarkers = map[string]struct{}{
	Unknown:  {},
	"알 수 없음": {},
	"-":      {},
}

// Tables are the read-only lookups used after the record's own label.
type Tables struct {
	ByReporter map[string]string
	ByID       map[int]string
}

// Resolver applies the fallback chain: department code, reporter table,
// department id table, then the unknown label.
type Resolver struct {
	byReporter map[string]string
	byID       map[int]string
	unknown    string
}

// NewResolver copies the tables so later changes to the caller's maps do not
// leak into resolution. An empty unknown label defaults to Unknown.
func NewResolver(tables Tables, unknown string) *Resolver {
	r := &Resolver{
		byReporter: make(map[string]string, len(tables.ByReporter)),
		byID:       make(map[int]string, len(tables.ByID)),
		unknown:    strings.TrimSpace(unknown),
	}
	if r.unknown == "" {
		r.unknown = Unknown
	}
	for name, dept := range tables.ByReporter {
		r.byReporter[strings.TrimSpace(name)] = strings.TrimSpace(dept)
	}
	for id, dept := range tables.ByID {
		r.byID[id] = strings.TrimSpace(dept)
	}
	return r
}

// Resolve returns the department label of rec. It never returns "".
func (r *Resolver) Resolve(rec domain.ArticleRecord) string {
	if code := strings.TrimSpace(rec.DepartmentCode); code != "" {
		return code
	}
	if name := strings.TrimSpace(rec.ReporterName); name != "" {
		if dept, ok := r.usable(r.byReporter[name]); ok {
			return dept
		}
	}
	if rec.DepartmentID != 0 {
		if dept, ok := r.usable(r.byID[rec.DepartmentID]); ok {
			return dept
		}
	}
	return r.unknown
}

func (r *Resolver) usable(dept string) (string, bool) {
	if dept == "" || dept == r.unknown {
		return "", false
	}
	if _, marker := unknownMarkers[dept]; marker {
		return "", false
	}
	return dept, true
}

// Apply returns a copy of records with DepartmentCode set to the resolved
// label. The input slice is left untouched.
func (r *Resolver) Apply(records []domain.ArticleRecord) []domain.ArticleRecord {
	out := make([]domain.ArticleRecord, len(records))
	for i, rec := range records {
		rec.DepartmentCode = r.Resolve(rec)
		out[i] = rec
	}
	return out
}

// Options lists the distinct resolved departments sorted by name, prefixed by
// the all-departments choice.
func (r *Resolver) Options(records []domain.ArticleRecord, all string) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, rec := range records {
		dept := r.Resolve(rec)
		if _, ok := seen[dept]; ok {
			continue
		}
		seen[dept] = struct{}{}
		names = append(names, dept)
	}
	sort.Strings(names)
	return append([]string{all}, names...)
}
