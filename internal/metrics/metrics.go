// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LLMCallLatency observes provider call latency by outcome
	// (ok, unavailable, timeout, rejected).
	LLMCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forgeline_llm_call_duration_seconds",
			Help:    "LLM provider call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
		[]string{"provider", "outcome"},
	)

	// StageRuns counts stage invocations by result
	// (success, fallback, invalid_request, precondition_not_met, storage_failure).
	StageRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forgeline_stage_runs_total",
			Help: "Total number of pipeline stage invocations",
		},
		[]string{"stage", "result"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forgeline_stage_duration_seconds",
			Help:    "Pipeline stage wall-clock duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		},
		[]string{"stage"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forgeline_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation"},
	)

	SlowQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forgeline_db_slow_queries_total",
			Help: "Total number of queries slower than the configured threshold",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forgeline_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		},
		[]string{"method", "route", "status"},
	)

	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forgeline_event_publish_failures_total",
			Help: "Total number of events that could not be published",
		},
		[]string{"sink"},
	)
)

// RecordLLMCall records one provider call.
func RecordLLMCall(provider, outcome string, duration time.Duration) {
	LLMCallLatency.WithLabelValues(provider, outcome).Observe(duration.Seconds())
}

// RecordStage records one stage invocation.
func RecordStage(stage, result string, duration time.Duration) {
	StageRuns.WithLabelValues(stage, result).Inc()
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordEventPublishFailure counts an event a sink failed to accept.
func RecordEventPublishFailure(sink string) {
	EventPublishFailures.WithLabelValues(sink).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
