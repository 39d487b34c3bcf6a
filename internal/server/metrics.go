package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the collectors exported on /metrics. Each handler owns its
// registry so tests can build several handlers in one process.
type metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	simulations *prometheus.CounterVec
	cache       *prometheus.CounterVec
	rateLimited prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loan_simulator",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loan_simulator",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loan_simulator",
			Name:      "simulations_total",
			Help:      "Simulations computed by amortization system and strategy.",
		}, []string{"system", "strategy"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loan_simulator",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome.",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loan_simulator",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.simulations, m.cache, m.rateLimited)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) observeSimulation(system, strategy string) {
	if strategy == "" {
		strategy = "none"
	}
	m.simulations.WithLabelValues(system, strategy).Inc()
}
