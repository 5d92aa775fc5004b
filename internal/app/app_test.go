package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"NewsroomStats/internal/config"
	"NewsroomStats/internal/logging"
	"NewsroomStats/internal/source"
)

func fileConfig(t *testing.T) config.Config {
	t.Helper()

	published := time.Now().UTC().AddDate(0, 0, -2).Format(time.RFC3339)
	body := fmt.Sprintf(`[
  {"id": "1", "publishedAt": %q, "departmentCode": "정치", "reporterName": "김기자", "ref": "100"},
  {"id": "2", "publishedAt": %q, "departmentCode": "경제", "reporterName": "이기자", "ref": "40", "level": "1"}
]`, published, published)
	path := filepath.Join(t.TempDir(), "articles.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write articles: %v", err)
	}

	cfg := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	cfg.Source.Kind = SourceJSONFile
	cfg.Source.File = path
	return cfg
}

func TestReportWritesCSVFromFileSource(t *testing.T) {
	cfg := fileConfig(t)
	application := New(cfg, logging.NewWithWriter(&bytes.Buffer{}, "error"))
	defer application.Close(context.Background())

	var out bytes.Buffer
	err := application.Report(context.Background(), ReportOptions{
		Granularity: "week",
		GroupBy:     "department",
		Format:      "csv",
	}, &out)
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, total and two departments, got %q", out.String())
	}
	if !strings.Contains(lines[1], "전체부서,140,2,1") {
		t.Fatalf("total row must come first: %q", lines[1])
	}
	if !strings.Contains(lines[2], "정치,100,1,0") {
		t.Fatalf("rows must be sorted by views: %q", lines[2])
	}
}

func TestReportRejectsBadOptions(t *testing.T) {
	cfg := fileConfig(t)
	application := New(cfg, logging.NewWithWriter(&bytes.Buffer{}, "error"))

	cases := []ReportOptions{
		{Granularity: "daily", GroupBy: "department"},
		{Granularity: "week", GroupBy: "desk"},
		{Granularity: "week", GroupBy: "department", Direction: "sideways"},
		{Granularity: "week", GroupBy: "department", Format: "pdf"},
	}
	for _, opts := range cases {
		if err := application.Report(context.Background(), opts, &bytes.Buffer{}); err == nil {
			t.Fatalf("expected error for %+v", opts)
		}
	}
}

func TestUnknownSourceKind(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Source.Kind = "ftp"
	application := New(cfg, logging.NewWithWriter(&bytes.Buffer{}, "error"))

	err := application.Report(context.Background(), ReportOptions{Granularity: "month", GroupBy: "reporter"}, &bytes.Buffer{})
	if !errors.Is(err, source.ErrSourceNotRegistered) {
		t.Fatalf("expected ErrSourceNotRegistered, got %v", err)
	}
}
