// Package metrics exposes Prometheus counters for model-backed workflow steps
// and HTTP traffic.
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

// Metrics holds the collectors. Each instance owns its registry so servers
// built in tests never collide on registration.
//
// Metrics:
//   - scopeguard_step_outcomes_total{step,outcome}
//   - scopeguard_http_requests_total{method,route,status}
//   - scopeguard_http_request_duration_seconds{method,route}
type Metrics struct {
	registry *prometheus.Registry

	StepOutcomes  *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// New creates and registers all collectors, plus Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		StepOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopeguard_step_outcomes_total",
				Help: "Model-backed step executions by outcome",
			},
			[]string{"step", "outcome"}, // outcome: success, degraded, failure
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopeguard_http_requests_total",
				Help: "HTTP requests by route pattern and status code",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDurations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scopeguard_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveOutcome implements scope.Observer.
func (m *Metrics) ObserveOutcome(step, outcome string) {
	if m == nil {
		return
	}
	m.StepOutcomes.WithLabelValues(step, outcome).Inc()
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
