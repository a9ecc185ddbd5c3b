package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Reloader is notified after every successful pipeline run. Downstream
// consumers treat a reload as "replace in-memory index wholesale".
type Reloader interface {
	Reload()
}

// Scheduler periodically rebuilds the filtered dataset and signals
// downstream collaborators to reload. Consistency between raw and filtered
// data is eventually-consistent, bounded by the run interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pipeline  *Pipeline
	interval  time.Duration
	logger    *slog.Logger

	mu        sync.Mutex
	reloaders []Reloader
	lastStats *Stats
}

// NewScheduler creates a Scheduler running the pipeline every interval.
func NewScheduler(p *Pipeline, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		pipeline:  p,
		interval:  interval,
		logger:    logger,
	}
}

// AddReloader registers a downstream consumer to notify after runs.
func (s *Scheduler) AddReloader(r Reloader) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloaders = append(s.reloaders, r)
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run is delayed briefly so the initial ingest pass has a chance
// to land raw documents.
func (s *Scheduler) Start(ctx context.Context) error {
	interval := s.interval
	if interval <= 0 {
		interval = 2 * time.Hour
	}

	_, err := s.scheduler.Every(interval).
		StartAt(time.Now().Add(30 * time.Second)).
		Do(func() { s.RunOnce(ctx) })
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce executes a single pipeline run and notifies reloaders on success.
func (s *Scheduler) RunOnce(ctx context.Context) {
	stats, err := s.pipeline.Run(ctx)
	if err != nil {
		s.logger.Error("pipeline: scheduled run failed", "err", err)
		return
	}

	s.mu.Lock()
	s.lastStats = &stats
	reloaders := make([]Reloader, len(s.reloaders))
	copy(reloaders, s.reloaders)
	s.mu.Unlock()

	for _, r := range reloaders {
		r.Reload()
	}
}

// LastStats returns the stats of the most recent successful run, or nil.
func (s *Scheduler) LastStats() *Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
