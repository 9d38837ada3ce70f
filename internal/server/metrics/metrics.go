// Package metrics exposes Prometheus instruments for the HTTP API and the
// authentication flows.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 120}

// Metrics owns a private registry so that several instances (one per test)
// never collide.
type Metrics struct {
	registry        *prometheus.Registry
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authResults     *prometheus.CounterVec
	chatResults     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zia",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zia",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		authResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zia",
			Subsystem: "auth",
			Name:      "results_total",
			Help:      "Outcomes of register, login, refresh and token resolution",
		}, []string{"operation", "outcome"}),
		chatResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zia",
			Subsystem: "chat",
			Name:      "results_total",
			Help:      "Outcomes of proxied chat requests",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestTotal,
		m.requestDuration,
		m.authResults,
		m.chatResults,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestDuration.With(labels).Observe(duration.Seconds())
}

// AuthResult counts one outcome ("ok", "conflict", "unauthorized", ...) of
// an authentication operation.
func (m *Metrics) AuthResult(operation, outcome string) {
	m.authResults.With(prometheus.Labels{"operation": operation, "outcome": outcome}).Inc()
}

func (m *Metrics) ChatResult(outcome string) {
	m.chatResults.With(prometheus.Labels{"outcome": outcome}).Inc()
}
