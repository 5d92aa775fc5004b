package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"NewsroomStats/internal/aggregate"
	"NewsroomStats/internal/domain"
	"NewsroomStats/internal/period"
	"NewsroomStats/internal/usecase"
)

type badRequestError struct {
	msg string
}

func (e badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return badRequestError{msg: fmt.Sprintf(format, args...)}
}

// parseQuery reads from, to and limit. A date-only "to" covers the whole day.
func parseQuery(values url.Values) (domain.Query, error) {
	var q domain.Query
	if raw := values.Get("from"); raw != "" {
		from, ok := domain.ParseTimestamp(raw)
		if !ok {
			return q, badRequest("invalid from %q", raw)
		}
		q.From = from
	}
	if raw := values.Get("to"); raw != "" {
		to, ok := domain.ParseTimestamp(raw)
		if !ok {
			return q, badRequest("invalid to %q", raw)
		}
		if len(strings.TrimSpace(raw)) == len(period.KeyLayout) {
			to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		q.To = to
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return q, badRequest("to must not be before from")
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return q, badRequest("invalid limit %q", raw)
		}
		q.Limit = limit
	}
	return q, nil
}

func parseGranularity(values url.Values) (period.Granularity, error) {
	raw := values.Get("granularity")
	if raw == "" {
		return period.Week, nil
	}
	return period.ParseGranularity(raw)
}

func parseTableRequest(values url.Values) (usecase.TableRequest, error) {
	q, err := parseQuery(values)
	if err != nil {
		return usecase.TableRequest{}, err
	}
	granularity, err := parseGranularity(values)
	if err != nil {
		return usecase.TableRequest{}, err
	}
	groupBy := aggregate.ByDepartment
	if raw := values.Get("groupBy"); raw != "" {
		if groupBy, err = aggregate.ParseGroupBy(raw); err != nil {
			return usecase.TableRequest{}, err
		}
	}
	dir, err := aggregate.ParseDirection(values.Get("dir"))
	if err != nil {
		return usecase.TableRequest{}, badRequest("%s", err.Error())
	}
	sortColumn := aggregate.Column(values.Get("sort"))
	if sortColumn == "" {
		sortColumn = aggregate.ColumnTotalViews
	}
	return usecase.TableRequest{
		Query:       q,
		Granularity: granularity,
		GroupBy:     groupBy,
		Period:      values.Get("period"),
		Department:  values.Get("department"),
		Sort:        sortColumn,
		Direction:   dir,
	}, nil
}

// handleArticles proxies the article source: 200 with records, 204 when
// nothing matched, 500 when the source failed.
func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.source == nil {
		writeError(w, http.StatusInternalServerError, "article source is not configured")
		return
	}

	records, err := s.source.Fetch(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(records) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	req, err := parseTableRequest(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	buckets, err := s.dashboard.Buckets(r.Context(), req.Query, aggregate.Options{Granularity: req.Granularity, GroupBy: req.GroupBy})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	req, err := parseTableRequest(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.dashboard.Table(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q, err := parseQuery(values)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	granularity, err := parseGranularity(values)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var keys []string
	if raw := values.Get("keys"); raw != "" {
		for _, key := range strings.Split(raw, ",") {
			if key = strings.TrimSpace(key); key != "" {
				keys = append(keys, key)
			}
		}
	}
	months := -1
	if raw := values.Get("months"); raw != "" {
		if months, err = strconv.Atoi(raw); err != nil || months < 0 {
			s.fail(w, r, badRequest("invalid months %q", raw))
			return
		}
	}

	points, err := s.dashboard.Series(r.Context(), q, granularity, keys, months)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q, err := parseQuery(values)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	granularity, err := parseGranularity(values)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	levels, err := s.dashboard.Levels(r.Context(), q, granularity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	departments, err := s.dashboard.Departments(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, departments)
}

func (s *Server) handlePeriodArticles(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q, err := parseQuery(values)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	granularity, err := parseGranularity(values)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	key := chi.URLParam(r, "period")
	if _, err := period.ParseKey(key); err != nil {
		s.fail(w, r, badRequest("invalid period %q", key))
		return
	}
	bucket, err := s.dashboard.Articles(r.Context(), q, granularity, key, values.Get("department"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bucket)
}

type pageData struct {
	View        usecase.TableView
	Series      []domain.SeriesPoint
	TrackedKeys []string
	Reporter    bool
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	req, err := parseTableRequest(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data := pageData{TrackedKeys: s.dashboard.TrackedKeys(), Reporter: req.GroupBy == aggregate.ByReporter}
	data.View, err = s.dashboard.Table(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data.Series, err = s.dashboard.Series(r.Context(), req.Query, req.Granularity, data.TrackedKeys, -1)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil && s.logger != nil {
		s.logger.Error("render dashboard", "error", err)
	}
}
