// Package metrics exposes Prometheus collectors for the console: guard
// decisions, upstream calls made through the authenticated client, and
// console HTTP requests.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const DefaultNamespace = "jvmanager"

type Config struct {
	Namespace string
	Registry  prometheus.Registerer
	Buckets   []float64
}

type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		if len(namespace) > 0 {
			c.Namespace = namespace
		}
	}
}

func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics implements fetch.Observer.
type Metrics struct {
	guardDecisions   *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	rejected         prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func New(opts ...Option) *Metrics {
	config := Config{
		Namespace: DefaultNamespace,
		Registry:  prometheus.DefaultRegisterer,
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		guardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "guard_decisions_total",
			Help:      "Session guard decisions by outcome and reason",
		}, []string{"decision", "reason"}),

		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the Jivas platform by method and status",
		}, []string{"method", "status"}),

		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of requests sent to the Jivas platform",
			Buckets:   config.Buckets,
		}, []string{"method"}),

		rejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "credentials_rejected_total",
			Help:      "Credentials cleared after the platform answered 401",
		}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Console HTTP requests by route and status",
		}, []string{"route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Console HTTP request latency",
			Buckets:   config.Buckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) ObserveGuard(decision string, reason string) {
	m.guardDecisions.WithLabelValues(decision, reason).Inc()
}

func (m *Metrics) ObserveResponse(method string, status int, elapsed time.Duration) {
	m.upstreamRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.upstreamDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRejected() {
	m.rejected.Inc()
}

func (m *Metrics) ObserveHTTP(route string, status int, elapsed time.Duration) {
	if len(route) == 0 {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
