// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sales"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry        *prometheus.Registry
	operations      *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec

	failedPublishes atomic.Int64
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Sale operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Sale events that could not be published.",
		}, []string{"event"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.operations,
		m.publishFailures,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOperation counts one finished sale operation. Outcome is "ok" or an error kind.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) PublishFailed(event string) {
	m.publishFailures.WithLabelValues(event).Inc()
	m.failedPublishes.Add(1)
}

// FailedPublishes is the number of publish failures since start.
func (m *Metrics) FailedPublishes() int64 {
	return m.failedPublishes.Load()
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	m.httpDuration.WithLabelValues(method, route, status).Observe(seconds)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
