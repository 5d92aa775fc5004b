package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"NewsroomStats/internal/domain"
)

type stubSource struct {
	name string
	got  domain.Query
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(_ context.Context, q domain.Query) ([]domain.ArticleRecord, error) {
	s.got = q
	if s.err != nil {
		return nil, s.err
	}
	return []domain.ArticleRecord{{ID: "1"}}, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&stubSource{name: "mongo"})
	reg.Register(&stubSource{name: "jsonfile"})

	if _, err := reg.Resolve("mongo"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := reg.Resolve("oracle"); !errors.Is(err, ErrSourceNotRegistered) {
		t.Fatalf("expected ErrSourceNotRegistered, got %v", err)
	}
	if names := reg.Names(); len(names) != 2 || names[0] != "jsonfile" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestDefaultsFillQuery(t *testing.T) {
	t.Parallel()

	stub := &stubSource{name: "stub"}
	d := NewDefaults(stub, 0, 0, nil)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	if _, err := d.Fetch(context.Background(), domain.Query{}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if stub.got.Limit != DefaultLimit {
		t.Fatalf("unexpected limit %d", stub.got.Limit)
	}
	if !stub.got.To.Equal(now) || !stub.got.From.Equal(now.Add(-DefaultLookback)) {
		t.Fatalf("unexpected window %s..%s", stub.got.From, stub.got.To)
	}

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := d.Fetch(context.Background(), domain.Query{From: from, Limit: 10}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !stub.got.From.Equal(from) || stub.got.Limit != 10 {
		t.Fatalf("explicit values must be kept: %+v", stub.got)
	}
}

func TestDefaultsPropagatesErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	d := NewDefaults(&stubSource{name: "stub", err: boom}, 5, time.Hour, nil)
	if _, err := d.Fetch(context.Background(), domain.Query{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
