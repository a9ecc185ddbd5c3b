package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds every tunable of the ingestion and filter pipeline.
type AppConfig struct {
	AppEnv   string
	LogLevel string
	Port     string

	// Base directories. All are created at startup if missing.
	LinksDir           string
	RawDir             string
	FilteredDir        string
	RawArchiveDir      string
	FilteredArchiveDir string

	// Outbound HTTP.
	HTTPTimeout    time.Duration
	FetchRetries   int
	FetchBaseDelay time.Duration

	// Sliding-window rate limit, per location key.
	RateLimitWindow time.Duration
	RateLimitMax    int

	// Ingest scheduling.
	BatchSize       int
	FreshnessWindow time.Duration
	PassInterval    time.Duration // sleep after a full pass over all locations
	IdleInterval    time.Duration // sleep when no links are configured
	BatchPause      time.Duration // sleep between batches

	// Filter pipeline scheduling.
	FilterInterval time.Duration
	LoadWorkers    int // 0 = derive from available CPUs
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		AppEnv:   getenvDefault("APP_ENV", "dev"),
		LogLevel: getenvDefault("LOG_LEVEL", "info"),
		Port:     getenvDefault("PORT", "8080"),

		LinksDir:    getenvDefault("LINKS_DIR", "data/links"),
		RawDir:      getenvDefault("RAW_DIR", "data/cache"),
		FilteredDir: getenvDefault("FILTERED_DIR", "data/filtered"),

		FetchRetries: getenvInt("FETCH_MAX_RETRIES", 5),
		RateLimitMax: getenvInt("RATE_LIMIT_MAX", 20),
		BatchSize:    getenvInt("INGEST_BATCH_SIZE", 50),
		LoadWorkers:  getenvInt("LOAD_WORKERS", 0),
	}

	archiveDir := getenvDefault("ARCHIVE_DIR", "data/archive")
	cfg.RawArchiveDir = filepath.Join(archiveDir, "raw")
	cfg.FilteredArchiveDir = filepath.Join(archiveDir, "filtered")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.FetchBaseDelay, err = getenvDuration("FETCH_BASE_DELAY", "1s"); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getenvDuration("RATE_LIMIT_WINDOW", "60s"); err != nil {
		return nil, err
	}
	if cfg.FreshnessWindow, err = getenvDuration("FRESHNESS_WINDOW", "12h"); err != nil {
		return nil, err
	}
	if cfg.PassInterval, err = getenvDuration("PASS_INTERVAL", "6h"); err != nil {
		return nil, err
	}
	if cfg.IdleInterval, err = getenvDuration("IDLE_INTERVAL", "2h"); err != nil {
		return nil, err
	}
	if cfg.BatchPause, err = getenvDuration("BATCH_PAUSE", "60s"); err != nil {
		return nil, err
	}
	if cfg.FilterInterval, err = getenvDuration("FILTER_INTERVAL", "2h"); err != nil {
		return nil, err
	}

	if cfg.FetchRetries <= 0 {
		return nil, fmt.Errorf("FETCH_MAX_RETRIES must be positive")
	}
	if cfg.RateLimitMax <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX must be positive")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("INGEST_BATCH_SIZE must be positive")
	}

	return cfg, nil
}

// EnsureDirs creates every configured base directory.
func (c *AppConfig) EnsureDirs() error {
	dirs := []string{
		c.LinksDir, c.RawDir, c.FilteredDir,
		c.RawArchiveDir, c.FilteredArchiveDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	s := getenvDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
