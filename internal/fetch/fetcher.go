package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/tanicerdas/weather-pipeline/internal/clock"
	"github.com/tanicerdas/weather-pipeline/internal/metrics"
	"github.com/tanicerdas/weather-pipeline/internal/ratelimit"
)

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("unexpected status code: %d", e.Code) }

// Config controls the retry loop.
type Config struct {
	MaxRetries int           // bounded attempts per Fetch call
	BaseDelay  time.Duration // unit for every backoff computation
}

// Fetcher performs one rate-limited HTTP fetch with bounded retries and
// exponential backoff. Admission happens once per call, before the retry
// loop, not per attempt. Total worst-case latency is bounded by the sum of
// configured backoffs, so a Fetch never blocks indefinitely.
type Fetcher struct {
	client  *http.Client
	cfg     Config
	limiter *ratelimit.Limiter
	circuit *gobreaker.CircuitBreaker
	clk     clock.Clock
	logger  *slog.Logger

	// Overridable in tests.
	pickAgent func() string
	jitter    func(lo, hi float64) time.Duration
}

func New(client *http.Client, cfg Config, limiter *ratelimit.Limiter, clk clock.Clock, logger *slog.Logger) *Fetcher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "upstream-weather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Fetcher{
		client:    client,
		cfg:       cfg,
		limiter:   limiter,
		circuit:   cb,
		clk:       clk,
		logger:    logger,
		pickAgent: randomUserAgent,
		jitter: func(lo, hi float64) time.Duration {
			return time.Duration((lo + rand.Float64()*(hi-lo)) * float64(time.Second))
		},
	}
}

// Fetch retrieves the raw response body for url. key identifies the
// location for rate-limit accounting.
//
// Backoff policy per attempt i (base b):
//   - 429: sleep b*2^i + jitter(1,3), retry
//   - 403: sleep b*2^i*2 + jitter(5,10), rotate identity, retry
//   - other HTTP error: sleep b*(i+1) + jitter(0.5,2) and retry, except on
//     the final attempt, which fails immediately
//   - connection/timeout: sleep b*(i+1) + jitter(0.5,2), retry
//   - anything else (including an open circuit): fail immediately
func (f *Fetcher) Fetch(ctx context.Context, targetURL, key string) ([]byte, error) {
	if f.client == nil {
		return nil, errNoHTTPClient
	}

	if err := f.limiter.Acquire(ctx, key); err != nil {
		return nil, err
	}

	agent := f.pickAgent()
	var lastErr error

	for attempt := 0; attempt < f.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		metrics.FetchAttemptsTotal.Inc()
		body, err := f.attempt(ctx, targetURL, agent)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var delay time.Duration
		var statusErr *StatusError
		switch {
		case errors.As(err, &statusErr) && statusErr.Code == http.StatusTooManyRequests:
			delay = f.backoffExp(attempt) + f.jitter(1, 3)
			f.logger.Warn("fetch: rate limited by upstream", "url", targetURL, "attempt", attempt+1, "delay", delay)

		case errors.As(err, &statusErr) && statusErr.Code == http.StatusForbidden:
			// 403 is treated as more severe than 429: longer backoff plus a
			// fresh identity.
			delay = f.backoffExp(attempt)*2 + f.jitter(5, 10)
			agent = f.pickAgent()
			f.logger.Warn("fetch: access blocked by upstream", "url", targetURL, "attempt", attempt+1, "delay", delay)

		case errors.As(err, &statusErr):
			if attempt == f.cfg.MaxRetries-1 {
				metrics.FetchFailuresTotal.WithLabelValues("http_status").Inc()
				return nil, lastErr
			}
			delay = f.backoffLinear(attempt) + f.jitter(0.5, 2)
			f.logger.Warn("fetch: http error", "url", targetURL, "status", statusErr.Code, "attempt", attempt+1, "delay", delay)

		case ctx.Err() != nil:
			return nil, ctx.Err()

		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.FetchFailuresTotal.WithLabelValues("circuit_open").Inc()
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)

		case isNetworkErr(err):
			delay = f.backoffLinear(attempt) + f.jitter(0.5, 2)
			f.logger.Warn("fetch: connection error", "url", targetURL, "attempt", attempt+1, "err", err, "delay", delay)

		default:
			metrics.FetchFailuresTotal.WithLabelValues("unexpected").Inc()
			return nil, lastErr
		}

		if err := f.clk.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	metrics.FetchFailuresTotal.WithLabelValues("exhausted").Inc()
	return nil, fmt.Errorf("retries exhausted for %s: %w", targetURL, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, targetURL, agent string) ([]byte, error) {
	result, err := f.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", agent)
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			return nil, &StatusError{Code: resp.StatusCode}
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

func (f *Fetcher) backoffExp(attempt int) time.Duration {
	return time.Duration(float64(f.cfg.BaseDelay) * math.Pow(2, float64(attempt)))
}

func (f *Fetcher) backoffLinear(attempt int) time.Duration {
	return f.cfg.BaseDelay * time.Duration(attempt+1)
}

// isNetworkErr reports whether err is a transport-level failure worth
// retrying: timeouts, refused connections, DNS errors. Context cancellation
// is handled by the caller before this check.
func isNetworkErr(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
