package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tanicerdas/weather-pipeline/internal/clock"
	"github.com/tanicerdas/weather-pipeline/internal/metrics"
	"github.com/tanicerdas/weather-pipeline/internal/store"
	"github.com/tanicerdas/weather-pipeline/internal/weather"
)

// Pipeline turns the full raw-store snapshot into the filtered dataset in
// five ordered stages: load, validate-location, validate-weather, summarize,
// normalize/alias. Rejections at any stage are silent drops; dirty upstream
// data is expected and routine. The pipeline as a whole fails only on I/O
// errors unrelated to individual documents.
type Pipeline struct {
	raw      *store.FileStore
	filtered *store.FileStore
	clk      clock.Clock
	logger   *slog.Logger
}

// Stats summarizes one pipeline run.
type Stats struct {
	RunID    string        `json:"runId"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Loaded   int           `json:"loaded"`
	Located  int           `json:"located"`
	Cleaned  int           `json:"cleaned"`
	Saved    int           `json:"saved"`
}

func New(raw, filtered *store.FileStore, clk clock.Clock, logger *slog.Logger) *Pipeline {
	return &Pipeline{raw: raw, filtered: filtered, clk: clk, logger: logger}
}

// Run executes all five stages over the current raw snapshot and rewrites
// the filtered store. Running twice on the same snapshot yields
// byte-identical filtered documents.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	stats := Stats{
		RunID:   uuid.NewString(),
		Started: p.clk.Now(),
	}
	logger := p.logger.With("run_id", stats.RunID)
	logger.Info("pipeline: run started")

	// Stage 1: parallel load of every raw document. Malformed files are
	// dropped here, not fatal.
	entries, err := p.raw.ReadAll(ctx)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("error").Inc()
		return stats, err
	}
	docs := decodeRawDocuments(entries, logger)
	stats.Loaded = len(docs)

	// Stage 2: keep documents with a complete, in-bounds, recognizable
	// location; normalize the timezone in place.
	located := make([]weather.RawDocument, 0, len(docs))
	for _, doc := range docs {
		if valid := validateLocation(&doc); !valid {
			metrics.DocumentsDroppedTotal.WithLabelValues("location").Inc()
			continue
		}
		located = append(located, doc)
	}
	stats.Located = len(located)

	// Stage 3: per-observation sanity and recency checks, with a minimum
	// surviving-sample rule per document.
	now := p.clk.Now()
	cleaned := make([]weather.RawDocument, 0, len(located))
	for _, doc := range located {
		obs, ok := cleanObservations(doc, now)
		if !ok {
			metrics.DocumentsDroppedTotal.WithLabelValues("weather").Inc()
			continue
		}
		doc.Observations = obs
		cleaned = append(cleaned, doc)
	}
	stats.Cleaned = len(cleaned)

	// Stages 4 and 5: summarize, then normalize names and build aliases.
	final := make([]weather.FilteredDocument, 0, len(cleaned))
	for _, doc := range cleaned {
		out := summarize(doc)
		normalizeDocument(&out)
		final = append(final, out)
	}

	for _, doc := range final {
		if doc.AdmCode == "" {
			metrics.DocumentsDroppedTotal.WithLabelValues("save").Inc()
			logger.Warn("pipeline: document without admCode, skipping save")
			continue
		}
		if err := p.filtered.Write(doc.AdmCode, doc); err != nil {
			logger.Error("pipeline: failed to persist filtered document", "admCode", doc.AdmCode, "err", err)
			continue
		}
		stats.Saved++
	}

	stats.Duration = p.clk.Now().Sub(stats.Started)
	metrics.PipelineRunsTotal.WithLabelValues("ok").Inc()
	metrics.PipelineDurationSeconds.Observe(stats.Duration.Seconds())
	logger.Info("pipeline: run complete",
		"loaded", stats.Loaded,
		"located", stats.Located,
		"cleaned", stats.Cleaned,
		"saved", stats.Saved,
		"duration", stats.Duration,
	)
	return stats, nil
}

func decodeRawDocuments(entries []store.Entry, logger *slog.Logger) []weather.RawDocument {
	docs := make([]weather.RawDocument, 0, len(entries))
	for _, entry := range entries {
		doc, err := decodeRawDocument(entry)
		if err != nil {
			metrics.DocumentsDroppedTotal.WithLabelValues("load").Inc()
			logger.Warn("pipeline: undecodable raw document, skipping", "key", entry.Key, "err", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}
