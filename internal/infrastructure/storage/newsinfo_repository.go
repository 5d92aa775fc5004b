package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/ports"
	"NewsroomStats/internal/textclean"
)

const departmentCodeGroup = "DEPART_TP"

// Open returns a Postgres handle for the newsroom database.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// NewsInfoRepository reads articles and their current view counters from the
// newsroom's newsinfo table.
type NewsInfoRepository struct {
	db *sql.DB
}

var (
	_ ports.NewsFeed      = (*NewsInfoRepository)(nil)
	_ ports.ArticleSource = (*NewsInfoRepository)(nil)
)

// NewNewsInfoRepository wires a sql.DB implementation.
func NewNewsInfoRepository(db *sql.DB) *NewsInfoRepository {
	return &NewsInfoRepository{db: db}
}

// Name identifies the repository when used as an article source.
func (r *NewsInfoRepository) Name() string { return "postgres" }

// Fetch implements ports.ArticleSource.
func (r *NewsInfoRepository) Fetch(ctx context.Context, q domain.Query) ([]domain.ArticleRecord, error) {
	return r.query(ctx, q.From, q.To, q.Limit)
}

// FetchRange returns every article published within [from, to].
func (r *NewsInfoRepository) FetchRange(ctx context.Context, from, to time.Time) ([]domain.ArticleRecord, error) {
	return r.query(ctx, from, to, 0)
}

func (r *NewsInfoRepository) query(ctx context.Context, from, to time.Time, limit int) ([]domain.ArticleRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("newsinfo database is not configured")
	}

	query, args, err := buildRangeQuery(from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("build newsinfo query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query newsinfo: %w", err)
	}

	var records []domain.ArticleRecord
	for rows.Next() {
		rec, err := scanArticle(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return records, nil
}

func buildRangeQuery(from, to time.Time, limit int) (string, []interface{}, error) {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(
			"n.newskey", "n.newsdate", "n.buseid", "t.code_name", "n.gijaname",
			"n.newstitle", "n.keyword", "n.level", "n.ref", `n."delete"`,
		).
		From("newsinfo n").
		LeftJoin("t_code_detail t ON t.code = n.buseid AND t.code_group = ?", departmentCodeGroup).
		OrderBy("n.newsdate DESC")

	if !from.IsZero() {
		builder = builder.Where(sq.GtOrEq{"n.newsdate": from.UTC()})
	}
	if !to.IsZero() {
		builder = builder.Where(sq.LtOrEq{"n.newsdate": to.UTC()})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return builder.ToSql()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.ArticleRecord, error) {
	var (
		id        string
		published time.Time
		buseID    sql.NullInt64
		codeName  sql.NullString
		reporter  sql.NullString
		title     sql.NullString
		keyword   sql.NullString
		level     sql.NullString
		ref       sql.NullString
		deleted   sql.NullInt64
	)
	if err := row.Scan(&id, &published, &buseID, &codeName, &reporter, &title, &keyword, &level, &ref, &deleted); err != nil {
		return domain.ArticleRecord{}, fmt.Errorf("scan newsinfo: %w", err)
	}

	rec := domain.ArticleRecord{
		ID:             strings.TrimSpace(id),
		PublishedAt:    published.UTC(),
		DepartmentCode: textclean.Clean(codeName.String),
		DepartmentID:   int(buseID.Int64),
		ReporterName:   textclean.Clean(reporter.String),
		Title:          textclean.Clean(title.String),
		Keyword:        textclean.Clean(keyword.String),
		Level:          strings.TrimSpace(level.String),
		Deleted:        deleted.Valid && deleted.Int64 == 1,
	}
	if rec.Level == "" {
		rec.Level = domain.DefaultLevel
	}
	if ref.Valid {
		rec.Ref = domain.NewCounter(strings.TrimSpace(ref.String))
	}
	return rec, nil
}
