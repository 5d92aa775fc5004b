package aggregate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"NewsroomStats/internal/domain"
)

// AllDepartments is the filter value that selects every department.
const AllDepartments = "전체 부서"

// ErrUnknownColumn is returned when sorting by a column GroupStats lacks.
var ErrUnknownColumn = errors.New("unknown sort column")

// Column names a sortable GroupStats field.
type Column string

const (
	ColumnDepartment       Column = "department"
	ColumnReporter         Column = "reporter"
	ColumnTotalViews       Column = "totalViews"
	ColumnArticleCount     Column = "articleCount"
	ColumnSelfArticleCount Column = "selfArticleCount"
	ColumnAverageViews     Column = "averageViews"
	ColumnSelfRatio        Column = "selfRatio"
)

// Direction is the sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts asc/ascending and desc/descending; empty means desc.
func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "desc", "descending":
		return Descending, nil
	case "asc", "ascending":
		return Ascending, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q", value)
	}
}

type columnAccessor struct {
	number func(domain.GroupStats) float64
	text   func(domain.GroupStats) string
}

var columns = map[Column]columnAccessor{
	ColumnDepartment:       {text: func(g domain.GroupStats) string { return g.Department }},
	ColumnReporter:         {text: func(g domain.GroupStats) string { return g.Reporter }},
	ColumnTotalViews:       {number: func(g domain.GroupStats) float64 { return float64(g.TotalViews) }},
	ColumnArticleCount:     {number: func(g domain.GroupStats) float64 { return float64(g.ArticleCount) }},
	ColumnSelfArticleCount: {number: func(g domain.GroupStats) float64 { return float64(g.SelfArticleCount) }},
	ColumnAverageViews:     {number: func(g domain.GroupStats) float64 { return g.AverageViews }},
	ColumnSelfRatio:        {number: func(g domain.GroupStats) float64 { return float64(g.SelfRatio) }},
}

// SortGroups returns a sorted copy of groups. The total row stays first
// whatever the column or direction, and ties keep their original order.
// Text columns compare with Korean collation.
func SortGroups(groups []domain.GroupStats, column Column, dir Direction) ([]domain.GroupStats, error) {
	out := make([]domain.GroupStats, 0, len(groups))
	if column == "" {
		return append(out, groups...), nil
	}
	accessor, ok := columns[column]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, string(column))
	}

	var rest []domain.GroupStats
	for _, g := range groups {
		if g.IsTotal {
			out = append(out, g)
			continue
		}
		rest = append(rest, g)
	}

	var compare func(a, b domain.GroupStats) int
	if accessor.number != nil {
		compare = func(a, b domain.GroupStats) int {
			x, y := accessor.number(a), accessor.number(b)
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	} else {
		collator := collate.New(language.Korean)
		compare = func(a, b domain.GroupStats) int {
			return collator.CompareString(accessor.text(a), accessor.text(b))
		}
	}

	sort.SliceStable(rest, func(i, j int) bool {
		c := compare(rest[i], rest[j])
		if dir == Ascending {
			return c < 0
		}
		return c > 0
	})
	return append(out, rest...), nil
}

// FilterByDepartment keeps the rows of one department. The all-departments
// value (or "") returns a copy of the input. keepTotal retains the bucket's
// total row in front of the filtered rows.
func FilterByDepartment(groups []domain.GroupStats, dept string, keepTotal bool) []domain.GroupStats {
	dept = strings.TrimSpace(dept)
	if dept == "" || dept == AllDepartments {
		return append([]domain.GroupStats(nil), groups...)
	}
	out := make([]domain.GroupStats, 0, len(groups))
	for _, g := range groups {
		if g.IsTotal {
			if keepTotal {
				out = append(out, g)
			}
			continue
		}
		if g.Department == dept {
			out = append(out, g)
		}
	}
	return out
}
