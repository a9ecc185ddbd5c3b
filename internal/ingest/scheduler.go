package ingest

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tanicerdas/weather-pipeline/internal/clock"
	"github.com/tanicerdas/weather-pipeline/internal/metrics"
	"github.com/tanicerdas/weather-pipeline/internal/store"
	"github.com/tanicerdas/weather-pipeline/internal/weather"
)

// Fetcher retrieves one raw upstream payload. key identifies the location
// for rate-limit accounting.
type Fetcher interface {
	Fetch(ctx context.Context, url, key string) ([]byte, error)
}

// LinkSource supplies the current LocationLink set.
type LinkSource interface {
	Load() ([]weather.LocationLink, error)
}

// Config controls the ingest loop pacing.
type Config struct {
	BatchSize       int
	FreshnessWindow time.Duration // skip locations refreshed this recently
	PassInterval    time.Duration // sleep after a full pass
	IdleInterval    time.Duration // sleep when no links exist
	BatchPause      time.Duration // sleep between batches
}

// Scheduler keeps the raw per-location cache fresh. It iterates all known
// locations in fixed-size batches, skips recently-updated ones, fetches the
// rest through the retrying fetcher, normalizes the payload shape, and
// writes to the raw store. One failing location never aborts a batch or a
// pass; the only user-visible failure mode is stale or missing data.
type Scheduler struct {
	links   LinkSource
	fetcher Fetcher
	raw     *store.FileStore
	cfg     Config
	clk     clock.Clock
	logger  *slog.Logger

	// lastUpdate is owned by this scheduler instance and resets on restart.
	// Running multiple replicas without external coordination would violate
	// both the freshness window and the upstream rate ceiling.
	lastUpdate map[string]time.Time

	// interFetchDelay paces requests within a batch. Overridable in tests.
	interFetchDelay func() time.Duration
}

func New(links LinkSource, fetcher Fetcher, raw *store.FileStore, cfg Config, clk clock.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		links:      links,
		fetcher:    fetcher,
		raw:        raw,
		cfg:        cfg,
		clk:        clk,
		logger:     logger,
		lastUpdate: make(map[string]time.Time),
		interFetchDelay: func() time.Duration {
			return time.Duration((0.2 + rand.Float64()*0.3) * float64(time.Second))
		},
	}
}

// Run executes the ingest loop until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("ingest: scheduler started")
	for {
		linkSet, err := s.links.Load()
		if err != nil {
			s.logger.Error("ingest: failed to load links", "err", err)
			if err := s.clk.Sleep(ctx, s.cfg.IdleInterval); err != nil {
				return err
			}
			continue
		}
		if len(linkSet) == 0 {
			s.logger.Info("ingest: no links configured, idling", "sleep", s.cfg.IdleInterval)
			if err := s.clk.Sleep(ctx, s.cfg.IdleInterval); err != nil {
				return err
			}
			continue
		}

		if err := s.RunPass(ctx, linkSet); err != nil {
			return err
		}

		s.logger.Info("ingest: pass complete", "locations", len(linkSet), "sleep", s.cfg.PassInterval)
		if err := s.clk.Sleep(ctx, s.cfg.PassInterval); err != nil {
			return err
		}
	}
}

// RunPass processes every link once, in batches. It returns an error only
// on cancellation.
func (s *Scheduler) RunPass(ctx context.Context, linkSet []weather.LocationLink) error {
	total := len(linkSet)
	for start := 0; start < total; start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > total {
			end = total
		}
		s.logger.Info("ingest: processing batch", "from", start, "to", end-1, "total", total)

		for _, link := range linkSet[start:end] {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !s.due(link.AdmCode) {
				metrics.LocationsSkippedFreshTotal.Inc()
				continue
			}

			s.fetchOne(ctx, link)

			if err := s.clk.Sleep(ctx, s.interFetchDelay()); err != nil {
				return err
			}
		}

		if end < total {
			if err := s.clk.Sleep(ctx, s.cfg.BatchPause); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scheduler) due(admCode string) bool {
	last, ok := s.lastUpdate[admCode]
	if !ok {
		return true
	}
	return s.clk.Now().Sub(last) >= s.cfg.FreshnessWindow
}

// fetchOne fetches, normalizes, and persists a single location. A fetch
// failure still writes an empty-observations document so the location is
// marked attempted rather than left stale forever.
func (s *Scheduler) fetchOne(ctx context.Context, link weather.LocationLink) {
	now := s.clk.Now()

	var doc weather.RawDocument
	body, err := s.fetcher.Fetch(ctx, link.URL, link.AdmCode)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return
	case err != nil:
		s.logger.Warn("ingest: fetch failed, caching empty document", "adm4", link.AdmCode, "err", err)
		doc = weather.EmptyDocument(link.AdmCode, now)
	default:
		doc = weather.NormalizePayload(body, link.AdmCode, now)
	}

	if err := s.raw.Write(link.AdmCode, doc); err != nil {
		// Fatal to this write only; the batch continues.
		s.logger.Error("ingest: failed to persist raw document", "adm4", link.AdmCode, "err", err)
		return
	}

	s.lastUpdate[link.AdmCode] = s.clk.Now()
	metrics.LocationsFetchedTotal.Inc()
	s.logger.Debug("ingest: cached", "adm4", link.AdmCode, "observations", len(doc.Observations))
}
