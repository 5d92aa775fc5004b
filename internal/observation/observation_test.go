package observation

import (
	"testing"
	"time"

	"NewsroomStats/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 12, 0, 0, 0, time.UTC)
}

func TestSeriesPicksLatestAtOrBeforeCutoff(t *testing.T) {
	t.Parallel()

	rec := domain.ArticleRecord{ViewCount: domain.ViewCount{Visits: []domain.VisitSnapshot{
		{At: day(10), Count: 90},
		{At: day(1), Count: 10},
		{At: day(5), Count: 50},
	}}}

	if got := Extract(rec, day(6)); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if got := Extract(rec, day(5)); got != 50 {
		t.Fatalf("snapshot at the cutoff must count, got %d", got)
	}
	if got := Extract(rec, day(31)); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
}

func TestSeriesNothingQualifies(t *testing.T) {
	t.Parallel()

	late := domain.ArticleRecord{ViewCount: domain.ViewCount{Visits: []domain.VisitSnapshot{{At: day(20), Count: 7}}}}
	if got := Extract(late, day(6)); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}

	empty := domain.ArticleRecord{ViewCount: domain.ViewCount{Visits: []domain.VisitSnapshot{}, Ref: domain.CounterOf(99)}}
	if _, ok := For(empty).(Series); !ok {
		t.Fatalf("present series must select the series extractor")
	}
	if got := Extract(empty, day(6)); got != 0 {
		t.Fatalf("expected 0 for empty series, got %d", got)
	}
}

func TestSeriesTieIsLastSeen(t *testing.T) {
	t.Parallel()

	rec := domain.ArticleRecord{ViewCount: domain.ViewCount{Visits: []domain.VisitSnapshot{
		{At: day(3), Count: 30},
		{At: day(3), Count: 31},
	}}}
	for i := 0; i < 3; i++ {
		if got := Extract(rec, day(4)); got != 31 {
			t.Fatalf("expected last-seen 31, got %d", got)
		}
	}
}

func TestScalarIgnoresCutoff(t *testing.T) {
	t.Parallel()

	rec := domain.ArticleRecord{ViewCount: domain.ViewCount{Ref: domain.NewCounter(" 1200 ")}}
	if got := Extract(rec, time.Time{}); got != 1200 {
		t.Fatalf("expected 1200, got %d", got)
	}
}

func TestCoerce(t *testing.T) {
	t.Parallel()

	cases := map[string]int64{
		"":      0,
		"42":    42,
		"-3":    -3,
		"12.6":  13,
		"1,234": 0,
		"abc":   0,
		"NaN":   0,
		"Inf":   0,
		"1e3":   1000,
	}
	for raw, want := range cases {
		if got := Coerce(raw); got != want {
			t.Fatalf("Coerce(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestMissingShapesYieldZero(t *testing.T) {
	t.Parallel()

	if got := Extract(domain.ArticleRecord{ID: "x"}, day(1)); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
