// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LLMDuration tracks LLM completion duration.
	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_completion_duration_seconds",
			Help:    "LLM completion duration",
			Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"model", "kind", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// ChatMessagesTotal tracks chat messages by sender role.
	ChatMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total chat messages handled",
		},
		[]string{"role", "category"},
	)

	// LessonsGeneratedTotal tracks daily lessons produced.
	LessonsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lessons_generated_total",
			Help: "Total daily lessons generated",
		},
		[]string{"status"},
	)

	// EdgeCacheLookups tracks router decisions.
	EdgeCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_cache_lookups_total",
			Help: "Edge router outcomes (hit, miss, bypass, store, fallback)",
		},
		[]string{"result"},
	)

	// EdgeCacheVersions tracks how many cache versions are stored.
	EdgeCacheVersions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edge_cache_versions",
			Help: "Number of cache versions present in the store",
		},
	)

	// EdgeLifecycleTransitions tracks lifecycle state changes.
	EdgeLifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_lifecycle_transitions_total",
			Help: "Lifecycle controller state transitions",
		},
		[]string{"state"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLM records metrics for an LLM completion.
func RecordLLM(model, kind, status string, duration float64, tokensIn, tokensOut int) {
	LLMDuration.WithLabelValues(model, kind, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordCacheLookup records a router decision.
func RecordCacheLookup(result string) {
	EdgeCacheLookups.WithLabelValues(result).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
