package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/tanicerdas/weather-pipeline/internal/api/http"
	"github.com/tanicerdas/weather-pipeline/internal/clock"
	"github.com/tanicerdas/weather-pipeline/internal/config"
	"github.com/tanicerdas/weather-pipeline/internal/fetch"
	"github.com/tanicerdas/weather-pipeline/internal/ingest"
	"github.com/tanicerdas/weather-pipeline/internal/links"
	"github.com/tanicerdas/weather-pipeline/internal/logging"
	"github.com/tanicerdas/weather-pipeline/internal/pipeline"
	"github.com/tanicerdas/weather-pipeline/internal/ratelimit"
	"github.com/tanicerdas/weather-pipeline/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("failed to prepare data directories: %v", err)
	}

	slogger := logging.New(cfg.AppEnv, cfg.LogLevel)
	clk := clock.Real{}

	// Shared HTTP client for upstream fetches.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// File-backed stores with rotate-on-overwrite archiving.
	rawStore := store.New(cfg.RawDir, cfg.RawArchiveDir, cfg.LoadWorkers, clk, slogger)
	filteredStore := store.New(cfg.FilteredDir, cfg.FilteredArchiveDir, cfg.LoadWorkers, clk, slogger)

	// Ingest side: rate-limited retrying fetcher feeding the raw store.
	limiter := ratelimit.New(cfg.RateLimitWindow, cfg.RateLimitMax, clk)
	fetcher := fetch.New(httpClient, fetch.Config{
		MaxRetries: cfg.FetchRetries,
		BaseDelay:  cfg.FetchBaseDelay,
	}, limiter, clk, slogger)
	linkLoader := links.NewLoader(cfg.LinksDir, slogger)

	ingestSched := ingest.New(linkLoader, fetcher, rawStore, ingest.Config{
		BatchSize:       cfg.BatchSize,
		FreshnessWindow: cfg.FreshnessWindow,
		PassInterval:    cfg.PassInterval,
		IdleInterval:    cfg.IdleInterval,
		BatchPause:      cfg.BatchPause,
	}, clk, slogger)

	// Filter side: periodic five-stage pipeline over the raw snapshot.
	filterPipeline := pipeline.New(rawStore, filteredStore, clk, slogger)
	pipelineSched := pipeline.NewScheduler(filterPipeline, cfg.FilterInterval, slogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The two loops communicate only through the filesystem-backed stores.
	go func() {
		if err := ingestSched.Run(ctx); err != nil && ctx.Err() == nil {
			slogger.Error("ingest scheduler stopped", "err", err)
		}
	}()
	if err := pipelineSched.Start(ctx); err != nil {
		log.Fatalf("failed to start pipeline scheduler: %v", err)
	}
	defer pipelineSched.Stop()

	// Operational HTTP surface.
	app := fiber.New(fiber.Config{
		AppName:               "weather-pipeline",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-pipeline",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, pipelineSched, rawStore, filteredStore)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slogger.Error("fiber server stopped", "err", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slogger.Error("error during shutdown", "err", err)
	}
}
