package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tanicerdas/weather-pipeline/internal/clock"
	"github.com/tanicerdas/weather-pipeline/internal/pipeline"
	"github.com/tanicerdas/weather-pipeline/internal/store"
)

func newTestApp(t *testing.T) (*fiber.App, *store.FileStore, *pipeline.Scheduler) {
	t.Helper()
	base := t.TempDir()
	dirs := map[string]string{}
	for _, name := range []string{"raw", "raw_archive", "filtered", "filtered_archive"} {
		dir := filepath.Join(base, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		dirs[name] = dir
	}

	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	raw := store.New(dirs["raw"], dirs["raw_archive"], 2, clk, logger)
	filtered := store.New(dirs["filtered"], dirs["filtered_archive"], 2, clk, logger)

	p := pipeline.New(raw, filtered, clk, logger)
	sched := pipeline.NewScheduler(p, 2*time.Hour, logger)

	app := fiber.New()
	RegisterRoutes(app, sched, raw, filtered)
	return app, raw, sched
}

func TestStatusEndpoint(t *testing.T) {
	app, raw, _ := newTestApp(t)

	if err := raw.Write("3201011001", map[string]string{"ok": "yes"}); err != nil {
		t.Fatalf("seed raw store: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/status", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		RawDocuments      int             `json:"rawDocuments"`
		FilteredDocuments int             `json:"filteredDocuments"`
		LastPipelineRun   *pipeline.Stats `json:"lastPipelineRun"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.RawDocuments != 1 {
		t.Fatalf("expected 1 raw document, got %d", body.RawDocuments)
	}
	if body.FilteredDocuments != 0 {
		t.Fatalf("expected 0 filtered documents, got %d", body.FilteredDocuments)
	}
	if body.LastPipelineRun != nil {
		t.Fatalf("expected no pipeline stats before the first run, got %+v", body.LastPipelineRun)
	}
}

func TestStatusReportsLastRun(t *testing.T) {
	app, _, sched := newTestApp(t)

	sched.RunOnce(context.Background())

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/status", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		LastPipelineRun *pipeline.Stats `json:"lastPipelineRun"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.LastPipelineRun == nil {
		t.Fatal("expected pipeline stats after a run")
	}
	if body.LastPipelineRun.RunID == "" {
		t.Fatal("expected a run id on the recorded stats")
	}
}
