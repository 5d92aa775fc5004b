package storage

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"NewsroomStats/internal/domain"
)

func TestBuildRangeQuery(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 2, 22, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	query, args, err := buildRangeQuery(from, to, 100)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	for _, fragment := range []string{
		"FROM newsinfo n",
		"LEFT JOIN t_code_detail t ON t.code = n.buseid AND t.code_group = $1",
		"n.newsdate >= $2",
		"n.newsdate <= $3",
		"ORDER BY n.newsdate DESC",
		"LIMIT",
	} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("query %q misses %q", query, fragment)
		}
	}
	if len(args) < 3 || args[0] != departmentCodeGroup {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestBuildRangeQueryOpenEnded(t *testing.T) {
	t.Parallel()

	query, args, err := buildRangeQuery(time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if strings.Contains(query, "WHERE") || strings.Contains(query, "LIMIT") {
		t.Fatalf("unexpected clauses: %s", query)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args: %v", args)
	}
}

type fakeRow struct {
	values []any
	err    error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = f.values[i].(string)
		case *time.Time:
			*ptr = f.values[i].(time.Time)
		case *sql.NullInt64:
			*ptr = f.values[i].(sql.NullInt64)
		case *sql.NullString:
			*ptr = f.values[i].(sql.NullString)
		}
	}
	return nil
}

func TestScanArticle(t *testing.T) {
	t.Parallel()

	published := time.Date(2025, 3, 1, 9, 0, 0, 0, time.FixedZone("KST", 9*3600))
	row := fakeRow{values: []any{
		" 2025030100123 ",
		published,
		sql.NullInt64{Int64: 1010, Valid: true},
		sql.NullString{String: "경제", Valid: true},
		sql.NullString{String: "김기자", Valid: true},
		sql.NullString{String: "제목\n", Valid: true},
		sql.NullString{},
		sql.NullString{},
		sql.NullString{String: "321", Valid: true},
		sql.NullInt64{Int64: 1, Valid: true},
	}}

	rec, err := scanArticle(row)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if rec.ID != "2025030100123" || rec.DepartmentID != 1010 || rec.Title != "제목" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Level != domain.DefaultLevel || !rec.Deleted || rec.Ref.Raw() != "321" {
		t.Fatalf("unexpected flags: %+v", rec)
	}
	if rec.PublishedAt.Location() != time.UTC {
		t.Fatalf("publish time must be UTC")
	}
}

func TestScanArticleError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	if _, err := scanArticle(fakeRow{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
