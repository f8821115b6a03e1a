// Package metrics holds the Prometheus collectors of the rent engine and
// its HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels of a calculation run.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeDataError   = "data_error"
	OutcomeError       = "error"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	Calculations    *prometheus.CounterVec
	CalcDuration    prometheus.Histogram
	SegmentsEmitted prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, so tests and servers
// never collide on the global one.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rent",
			Name:      "calculations_total",
			Help:      "Rent calculation runs by outcome.",
		}, []string{"outcome"}),
		CalcDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rent",
			Name:      "calculation_duration_seconds",
			Help:      "Wall time of a rent calculation run.",
			Buckets:   prometheus.DefBuckets,
		}),
		SegmentsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rent",
			Name:      "segments_emitted_total",
			Help:      "Segments returned by successful calculation runs.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rent",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rent",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		m.Calculations, m.CalcDuration, m.SegmentsEmitted,
		m.HTTPRequests, m.HTTPDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveCalculation records one run.
func (m *Metrics) ObserveCalculation(outcome string, segments int, elapsed time.Duration) {
	m.Calculations.WithLabelValues(outcome).Inc()
	m.CalcDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeOK {
		m.SegmentsEmitted.Add(float64(segments))
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
