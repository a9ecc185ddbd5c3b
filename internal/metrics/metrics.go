package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FetchAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_fetch_attempts_total",
		Help: "Total upstream HTTP fetch attempts, including retries",
	})
	FetchFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_fetch_failures_total",
		Help: "Total failed fetch calls by failure class",
	}, []string{"class"})
	RateLimitWaitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_ratelimit_waits_total",
		Help: "Total admissions that had to wait for the sliding window",
	})
	LocationsFetchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_locations_fetched_total",
		Help: "Total locations written to the raw store",
	})
	LocationsSkippedFreshTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_locations_skipped_fresh_total",
		Help: "Total locations skipped because their raw document was fresh",
	})
	DocumentsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_documents_dropped_total",
		Help: "Total documents dropped by the filter pipeline, by stage",
	}, []string{"stage"})
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Total filter pipeline runs by outcome",
	}, []string{"outcome"})
	PipelineDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_run_duration_seconds",
		Help:    "Filter pipeline run duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

func init() {
	prometheus.MustRegister(
		FetchAttemptsTotal,
		FetchFailuresTotal,
		RateLimitWaitsTotal,
		LocationsFetchedTotal,
		LocationsSkippedFreshTotal,
		DocumentsDroppedTotal,
		PipelineRunsTotal,
		PipelineDurationSeconds,
	)
}
