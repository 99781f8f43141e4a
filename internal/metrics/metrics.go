// Package metrics provides the Prometheus instrumentation for the todox
// server.
//
// # Description
//
// Metrics live on a private registry rather than the global default so that
// several servers (for example in tests) can coexist in one process. The
// registry is exposed through Handler for the /metrics route.
//
// A nil *Metrics is valid and records nothing; the server uses that when
// metrics are disabled.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace for all metrics
const metricsNamespace = "todox"

// Metrics holds all Prometheus metrics for the HTTP surface and the store.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts HTTP requests.
	// Labels: route, method, status
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures handler latency.
	// Labels: route, method
	RequestDurationSeconds *prometheus.HistogramVec

	// MutationsTotal counts successful item and preference mutations.
	// Labels: op (add, toggle, set_text, delete, delete_done, toggle_hide_done)
	MutationsTotal *prometheus.CounterVec

	// ItemsRemovedTotal counts items removed by delete-completed.
	ItemsRemovedTotal prometheus.Counter

	// ErrorsTotal counts failed requests by error class.
	// Labels: route, class (validation, not_found, storage)
	ErrorsTotal *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),

		RequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP handler latency in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
			[]string{"route", "method"},
		),

		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "store",
				Name:      "mutations_total",
				Help:      "Successful store mutations by operation",
			},
			[]string{"op"},
		),

		ItemsRemovedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "store",
				Name:      "completed_items_removed_total",
				Help:      "Items removed by delete-completed",
			},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "errors_total",
				Help:      "Failed requests by route and error class",
			},
			[]string{"route", "class"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDurationSeconds.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Mutation records one successful store mutation.
func (m *Metrics) Mutation(op string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(op).Inc()
}

// Removed records items removed by delete-completed.
func (m *Metrics) Removed(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.ItemsRemovedTotal.Add(float64(n))
}

// Error records a failed request.
func (m *Metrics) Error(route, class string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(route, class).Inc()
}
