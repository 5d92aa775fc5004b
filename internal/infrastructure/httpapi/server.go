// Package httpapi exposes the dashboard over HTTP.
package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"NewsroomStats/internal/aggregate"
	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/period"
	"NewsroomStats/internal/ports"
	"NewsroomStats/internal/report"
	"NewsroomStats/internal/usecase"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Dashboard is the presentation use case served by the API.
type Dashboard interface {
	Buckets(ctx context.Context, q domain.Query, opts aggregate.Options) ([]domain.PeriodBucket, error)
	Table(ctx context.Context, req usecase.TableRequest) (usecase.TableView, error)
	Series(ctx context.Context, q domain.Query, granularity period.Granularity, keys []string, months int) ([]domain.SeriesPoint, error)
	Levels(ctx context.Context, q domain.Query, granularity period.Granularity) ([]domain.LevelPoint, error)
	Articles(ctx context.Context, q domain.Query, granularity period.Granularity, key, dept string) (domain.ArticleBucket, error)
	Departments(ctx context.Context, q domain.Query) ([]string, error)
	TrackedKeys() []string
}

// ServerDeps wires the API.
type ServerDeps struct {
	Source    ports.ArticleSource
	Dashboard Dashboard
	Logger    *slog.Logger
	// RequestsPerSecond limits /api/articles; <= 0 disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// Server routes HTTP requests to the dashboard.
type Server struct {
	source    ports.ArticleSource
	dashboard Dashboard
	logger    *slog.Logger
	limiter   *rate.Limiter
	page      *template.Template
}

// NewServer parses the page template and builds the limiter.
func NewServer(deps ServerDeps) (*Server, error) {
	page, err := template.New("dashboard.html.tmpl").Funcs(template.FuncMap{
		"compact":    report.CompactNumber,
		"ratioClass": aggregate.RatioClass,
	}).ParseFS(templateFS, "templates/dashboard.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}

	s := &Server{
		source:    deps.Source,
		dashboard: deps.Dashboard,
		logger:    deps.Logger,
		page:      page,
	}
	if deps.RequestsPerSecond > 0 {
		burst := deps.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(deps.RequestsPerSecond), burst)
	}
	return s, nil
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.With(s.limit).Get("/articles", s.handleArticles)
		r.Get("/buckets", s.handleBuckets)
		r.Get("/table", s.handleTable)
		r.Get("/series", s.handleSeries)
		r.Get("/levels", s.handleLevels)
		r.Get("/departments", s.handleDepartments)
		r.Get("/periods/{period}/articles", s.handlePeriodArticles)
	})
	return r
}

// Serve runs the HTTP server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		if s.logger != nil {
			s.logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		}
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError && s.logger != nil {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func statusOf(err error) int {
	var bad badRequestError
	switch {
	case errors.As(err, &bad),
		errors.Is(err, period.ErrInvalidGranularity),
		errors.Is(err, aggregate.ErrInvalidGroupBy),
		errors.Is(err, aggregate.ErrUnknownColumn):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrPeriodNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) info(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
