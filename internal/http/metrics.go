package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serverMetrics holds the Prometheus instruments for the HTTP layer. Each
// server gets its own registry so tests can spin up servers independently.
type serverMetrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimitHits   prometheus.Counter
}

func newServerMetrics() *serverMetrics {
	registry := prometheus.NewRegistry()

	m := &serverMetrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fintrack_http_requests_total",
			Help: "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fintrack_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_http_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration, m.rateLimitHits)
	return m
}

func (m *serverMetrics) observe(method, route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
