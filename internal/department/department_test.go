package department

import (
	"reflect"
	"testing"

	"NewsroomStats/internal/domain"
)

func newTestResolver() *Resolver {
	return NewResolver(Tables{
		ByReporter: map[string]string{"김기자": "디지털뉴스부", "박기자": "알 수 없음"},
		ByID:       map[int]string{1006: "정치", 1010: "경제"},
	}, "")
}

func TestResolveFallbackOrder(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	cases := []struct {
		name string
		rec  domain.ArticleRecord
		want string
	}{
		{"own code", domain.ArticleRecord{DepartmentCode: " 사회1팀 ", ReporterName: "김기자", DepartmentID: 1006}, "사회1팀"},
		{"reporter table", domain.ArticleRecord{DepartmentCode: "  ", ReporterName: " 김기자 ", DepartmentID: 1006}, "디지털뉴스부"},
		{"reporter marked unknown falls to id", domain.ArticleRecord{ReporterName: "박기자", DepartmentID: 1010}, "경제"},
		{"id table", domain.ArticleRecord{DepartmentID: 1006}, "정치"},
		{"nothing matches", domain.ArticleRecord{ReporterName: "없는기자", DepartmentID: 9999}, Unknown},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := r.Resolve(tc.rec); got != tc.want {
				t.Fatalf("Resolve = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	records := []domain.ArticleRecord{
		{ReporterName: "김기자"},
		{DepartmentID: 1010},
		{},
	}
	once := r.Apply(records)
	twice := r.Apply(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second resolution changed labels: %+v vs %+v", once, twice)
	}
	if records[0].DepartmentCode != "" {
		t.Fatalf("Apply must not mutate the input")
	}
}

func TestCustomUnknownLabel(t *testing.T) {
	t.Parallel()

	r := NewResolver(Tables{}, "unknown")
	if got := r.Resolve(domain.ArticleRecord{}); got != "unknown" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	got := r.Options([]domain.ArticleRecord{
		{DepartmentID: 1010},
		{DepartmentID: 1006},
		{DepartmentCode: "경제"},
	}, "전체 부서")
	want := []string{"전체 부서", "경제", "정치"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Options = %v, want %v", got, want)
	}
}
