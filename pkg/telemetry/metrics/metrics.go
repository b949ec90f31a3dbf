package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/routeway/pkg/routeway"
)

const (
	namespace = "routeway"
	subsystem = "client"
)

// requestDurationBuckets cover typical chat-completion latencies,
// from sub-second cached responses to long generations.
var requestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0}

// ClientMetrics records client activity into Prometheus collectors.
// It satisfies the routeway.MetricsRecorder interface.
type ClientMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	streamChunks    prometheus.Counter
	tokensTotal     *prometheus.CounterVec
}

// New creates a ClientMetrics registered on the given registry. If
// registry is nil, a private registry is created.
func New(registry *prometheus.Registry) *ClientMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &ClientMetrics{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Completed API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "End-to-end request latency, including retries.",
			Buckets:   requestDurationBuckets,
		}, []string{"endpoint"}),

		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "retries_total",
			Help:      "Retry attempts by endpoint.",
		}, []string{"endpoint"}),

		streamChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stream_chunks_total",
			Help:      "Streaming chunks received.",
		}),

		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tokens_total",
			Help:      "Tokens reported by the API, by kind.",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.retriesTotal,
		m.streamChunks,
		m.tokensTotal,
	)

	return m
}

// RecordRequest records a completed request.
func (m *ClientMetrics) RecordRequest(endpoint, outcome string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt.
func (m *ClientMetrics) RecordRetry(endpoint string) {
	m.retriesTotal.WithLabelValues(endpoint).Inc()
}

// RecordStreamChunk records one received streaming chunk.
func (m *ClientMetrics) RecordStreamChunk() {
	m.streamChunks.Inc()
}

// RecordTokens records token usage reported by the API.
func (m *ClientMetrics) RecordTokens(usage routeway.Usage) {
	if usage.PromptTokens > 0 {
		m.tokensTotal.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		m.tokensTotal.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
	}
	if usage.ReasoningTokens > 0 {
		m.tokensTotal.WithLabelValues("reasoning").Add(float64(usage.ReasoningTokens))
	}
}

// Registry returns the Prometheus registry backing this instance, for
// exposing through promhttp or scraping in tests.
func (m *ClientMetrics) Registry() *prometheus.Registry {
	return m.registry
}
