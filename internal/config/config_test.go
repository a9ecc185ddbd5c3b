package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.FetchRetries != 5 {
		t.Fatalf("expected 5 fetch retries, got %d", cfg.FetchRetries)
	}
	if cfg.RateLimitMax != 20 || cfg.RateLimitWindow != 60*time.Second {
		t.Fatalf("unexpected rate limit defaults: %d per %v", cfg.RateLimitMax, cfg.RateLimitWindow)
	}
	if cfg.BatchSize != 50 {
		t.Fatalf("expected batch size 50, got %d", cfg.BatchSize)
	}
	if cfg.FreshnessWindow != 12*time.Hour {
		t.Fatalf("expected 12h freshness window, got %v", cfg.FreshnessWindow)
	}
	if cfg.FilterInterval != 2*time.Hour {
		t.Fatalf("expected 2h filter interval, got %v", cfg.FilterInterval)
	}
	if cfg.RawArchiveDir != filepath.Join("data/archive", "raw") {
		t.Fatalf("unexpected raw archive dir %q", cfg.RawArchiveDir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FETCH_MAX_RETRIES", "3")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("INGEST_BATCH_SIZE", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.FetchRetries != 3 {
		t.Fatalf("expected override 3, got %d", cfg.FetchRetries)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Fatalf("expected override 30s, got %v", cfg.RateLimitWindow)
	}
	if cfg.BatchSize != 10 {
		t.Fatalf("expected override 10, got %d", cfg.BatchSize)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unparseable duration")
	}
}

func TestLoadRejectsNonPositive(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a zero rate limit")
	}
}

func TestEnsureDirs(t *testing.T) {
	base := t.TempDir()
	cfg := &AppConfig{
		LinksDir:           filepath.Join(base, "links"),
		RawDir:             filepath.Join(base, "cache"),
		FilteredDir:        filepath.Join(base, "filtered"),
		RawArchiveDir:      filepath.Join(base, "archive", "raw"),
		FilteredArchiveDir: filepath.Join(base, "archive", "filtered"),
	}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs failed: %v", err)
	}
	for _, dir := range []string{cfg.LinksDir, cfg.RawArchiveDir, cfg.FilteredArchiveDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, err=%v", dir, err)
		}
	}
}
