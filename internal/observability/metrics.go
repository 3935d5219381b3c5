package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "portal"

// Metrics wraps the Prometheus collectors the portal exports. A nil *Metrics is a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	decisions       *prometheus.CounterVec
	validation      *prometheus.HistogramVec
	backendCalls    *prometheus.CounterVec
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served, by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total number of error responses, by route, method and error code.",
		}, []string{"route", "method", "code"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Committed session gate decisions, by resulting state.",
		}, []string{"state"}),
		validation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gate_validation_seconds",
			Help:      "Latency of validate-token calls made by the session gate, by outcome (valid, invalid, superseded).",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"outcome"}),
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Calls made to the REST backend, by endpoint and status (0 on transport failure).",
		}, []string{"endpoint", "status"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.errors,
		m.decisions,
		m.validation,
		m.backendCalls,
	)
	return m
}

// Registry exposes the registry for the /metrics handler and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordDecision counts a committed gate decision.
func (m *Metrics) RecordDecision(state string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(state).Inc()
}

// RecordValidation observes a validate-token round trip.
func (m *Metrics) RecordValidation(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.validation.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordBackendCall counts a backend request.
func (m *Metrics) RecordBackendCall(endpoint string, status int) {
	if m == nil {
		return
	}
	m.backendCalls.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}
