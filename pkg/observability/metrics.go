// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring postsmith.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LLMBuckets defines histogram buckets suited for search and inference
// latencies, ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsmith_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postsmith_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method"},
	)

	// StreamingConnections tracks the number of active SSE streaming connections.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "postsmith_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// PipelineRunsTotal counts finished pipeline runs by outcome. The outcome
	// is "done", "rejected" or the error type of a failed run.
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsmith_pipeline_runs_total",
			Help: "Pipeline runs",
		},
		[]string{"outcome"},
	)

	// StageDuration records the time spent in each pipeline stage.
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postsmith_stage_duration_seconds",
			Help:    "Pipeline stage duration",
			Buckets: LLMBuckets,
		},
		[]string{"stage"},
	)

	// ProviderRequestsTotal counts requests sent to the search and LLM providers.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsmith_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "status"},
	)

	// ProviderLatency records provider latency in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postsmith_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider"},
	)

	// ProviderTokensTotal counts LLM tokens by direction (input/output).
	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postsmith_provider_tokens_total",
			Help: "Token count",
		},
		[]string{"provider", "direction"},
	)

	// SearchResults records how many normalized results each search returned.
	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postsmith_search_results",
			Help:    "Normalized search results per query",
			Buckets: []float64{0, 1, 3, 5, 7, 10, 20},
		},
		[]string{"provider"},
	)

	// RateLimitRejectedTotal counts requests refused by the per-subject limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "postsmith_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		PipelineRunsTotal,
		StageDuration,
		ProviderRequestsTotal,
		ProviderLatency,
		ProviderTokensTotal,
		SearchResults,
		RateLimitRejectedTotal,
	)
}

// ObserveProviderCall records one outbound provider call. status is "ok"
// or the error type of the failure.
func ObserveProviderCall(provider, status string, elapsed time.Duration) {
	ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	ProviderLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}
