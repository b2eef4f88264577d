// Package metrics provides Prometheus metrics export for the aggregation
// pipeline and the HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports pipeline metrics in Prometheus format.
type Exporter struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	sourceFetches *prometheus.CounterVec
	sourceLatency *prometheus.HistogramVec

	summaryRequests *prometheus.CounterVec
	llmLatency      prometheus.Histogram
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewExporter creates a new Prometheus metrics exporter.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sprintlens",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)
	e.httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sprintlens",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"method", "path"},
	)
	e.sourceFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sprintlens",
			Subsystem: "source",
			Name:      "fetches_total",
			Help:      "Source fetches by source name and outcome",
		},
		[]string{"source", "outcome"},
	)
	e.sourceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sprintlens",
			Subsystem: "source",
			Name:      "fetch_duration_seconds",
			Help:      "Source fetch latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"source"},
	)
	e.summaryRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sprintlens",
			Subsystem: "summary",
			Name:      "requests_total",
			Help:      "Summary generations by outcome",
		},
		[]string{"outcome"},
	)
	e.llmLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sprintlens",
			Subsystem: "summary",
			Name:      "llm_duration_seconds",
			Help:      "LLM call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	registry.MustRegister(
		e.httpRequests,
		e.httpLatency,
		e.sourceFetches,
		e.sourceLatency,
		e.summaryRequests,
		e.llmLatency,
	)
	return e
}

// ObserveHTTPRequest records one handled HTTP request.
func (e *Exporter) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	e.httpRequests.WithLabelValues(method, path, status).Inc()
	e.httpLatency.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveSourceFetch records one source fetch and its outcome
// ("ok" or "error").
func (e *Exporter) ObserveSourceFetch(sourceName, outcome string, duration time.Duration) {
	e.sourceFetches.WithLabelValues(sourceName, outcome).Inc()
	e.sourceLatency.WithLabelValues(sourceName).Observe(duration.Seconds())
}

// ObserveSummary records one summary generation outcome
// ("ok", "no_data", or "error").
func (e *Exporter) ObserveSummary(outcome string, llmDuration time.Duration) {
	e.summaryRequests.WithLabelValues(outcome).Inc()
	if llmDuration > 0 {
		e.llmLatency.Observe(llmDuration.Seconds())
	}
}

// Handler returns the Prometheus exposition handler for this registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
