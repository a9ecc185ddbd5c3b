package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/tanicerdas/weather-pipeline/internal/clock"
	"github.com/tanicerdas/weather-pipeline/internal/metrics"
)

// Limiter is a per-key sliding-window admission controller: at most max
// requests per trailing window per key. State is process-wide and in-memory
// only; it resets on restart and must be owned by a single scheduler
// instance.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	clk    clock.Clock
	hits   map[string][]time.Time

	// jitter is added on top of the computed wait before re-evaluating,
	// to avoid re-admitting in lockstep. Overridable in tests.
	jitter func() time.Duration
}

func New(window time.Duration, max int, clk clock.Clock) *Limiter {
	return &Limiter{
		window: window,
		max:    max,
		clk:    clk,
		hits:   make(map[string][]time.Time),
		jitter: func() time.Duration {
			return time.Duration((0.5 + rand.Float64()) * float64(time.Second))
		},
	}
}

// Admit prunes key's timestamps to the trailing window, then either records
// the request and returns zero, or returns how long the caller must wait
// before re-evaluating. The wait is oldest + window - now.
func (l *Limiter) Admit(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	cutoff := now.Add(-l.window)

	ts := l.hits[key]
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.hits[key] = kept
		return kept[0].Add(l.window).Sub(now)
	}

	l.hits[key] = append(kept, now)
	return 0
}

// Acquire blocks until key is admitted or ctx is canceled. Each required
// wait sleeps the computed duration plus a small random jitter, then
// re-evaluates the window.
func (l *Limiter) Acquire(ctx context.Context, key string) error {
	for {
		wait := l.Admit(key)
		if wait <= 0 {
			return nil
		}
		metrics.RateLimitWaitsTotal.Inc()
		if err := l.clk.Sleep(ctx, wait+l.jitter()); err != nil {
			return err
		}
	}
}
