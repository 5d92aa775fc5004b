// Package source selects the configured article source and applies the
// default query window.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/ports"
)

const (
	DefaultLimit    = 50000
	DefaultLookback = 365 * 24 * time.Hour
)

// ErrSourceNotRegistered is returned when no source has the requested name.
var ErrSourceNotRegistered = errors.New("source is not registered")

// Named is an article source registered under a config name.
type Named interface {
	ports.ArticleSource
	Name() string
}

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	sources map[string]Named
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Named{}}
}

// Register adds or replaces a source implementation.
func (r *Registry) Register(src Named) {
	if r.sources == nil {
		r.sources = map[string]Named{}
	}
	r.sources[src.Name()] = src
}

// Resolve returns a source by name.
func (r *Registry) Resolve(name string) (Named, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("%w: %s (have %v)", ErrSourceNotRegistered, name, r.Names())
}

// Names lists registered sources alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults fills unset query fields before delegating: the window defaults to
// the last year and the limit to DefaultLimit.
type Defaults struct {
	next     ports.ArticleSource
	limit    int
	lookback time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*Defaults)(nil)

// NewDefaults wraps next. Non-positive limit or lookback use the package defaults.
func NewDefaults(next ports.ArticleSource, limit int, lookback time.Duration, log *slog.Logger) *Defaults {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Defaults{next: next, limit: limit, lookback: lookback, now: time.Now, logger: log}
}

// Fetch applies the defaults and calls the wrapped source.
func (d *Defaults) Fetch(ctx context.Context, q domain.Query) ([]domain.ArticleRecord, error) {
	if d.next == nil {
		return nil, fmt.Errorf("article source is not configured")
	}

	q = d.Resolve(q)
	d.debug("fetch articles", "from", q.From.Format(time.RFC3339), "to", q.To.Format(time.RFC3339), "limit", q.Limit)

	records, err := d.next.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	d.debug("articles fetched", "count", len(records))
	return records, nil
}

// Resolve returns q with every unset field replaced by its default.
func (d *Defaults) Resolve(q domain.Query) domain.Query {
	if q.To.IsZero() {
		q.To = d.now().UTC()
	}
	if q.From.IsZero() {
		q.From = q.To.Add(-d.lookback)
	}
	if q.Limit <= 0 {
		q.Limit = d.limit
	}
	return q
}

func (d *Defaults) debug(msg string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
