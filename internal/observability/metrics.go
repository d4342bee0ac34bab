// Package observability owns the Prometheus collectors and the
// OpenTelemetry tracer provider of the admin server.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "practice_registry"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	backendRequests   *prometheus.CounterVec
	backendLatency    *prometheus.HistogramVec
	lookups           *prometheus.CounterVec
	suggestionDropped *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	activeSessions    prometheus.Gauge
}

// NewMetrics registers all collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		backendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests issued to the practice backend by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		backendLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of practice backend requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Suggestion lookups by domain and result (hit, miss, error).",
		}, []string{"domain", "result"}),
		suggestionDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_dropped_total",
			Help:      "Lookup responses discarded by the suggestion engine.",
		}, []string{"reason"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Admin HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Open workspace sessions.",
		}),
	}
}

// ObserveBackend records one backend request.
func (m *Metrics) ObserveBackend(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.backendRequests.WithLabelValues(endpoint, outcome).Inc()
	m.backendLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveLookup records one lookup and whether it was served from cache.
func (m *Metrics) ObserveLookup(domain, result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(domain, result).Inc()
}

// SuggestionDropped counts a discarded lookup response.
func (m *Metrics) SuggestionDropped(reason string) {
	if m == nil {
		return
	}
	m.suggestionDropped.WithLabelValues(reason).Inc()
}

// ObserveHTTP records one served admin request.
func (m *Metrics) ObserveHTTP(method, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, status).Inc()
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// BackendRequests exposes the request counter for tests.
func (m *Metrics) BackendRequests() *prometheus.CounterVec { return m.backendRequests }

// Lookups exposes the lookup counter for tests.
func (m *Metrics) Lookups() *prometheus.CounterVec { return m.lookups }

// HTTPRequests exposes the admin request counter for tests.
func (m *Metrics) HTTPRequests() *prometheus.CounterVec { return m.httpRequests }
