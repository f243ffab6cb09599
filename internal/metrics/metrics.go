// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eld"

// Result label values.
const (
	ResultSuccess = "success"
	ResultError   = "error"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics bundles the service collectors. A nil *Metrics is valid and records
// nothing, so packages can be tested without a registry.
type Metrics struct {
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	RouteRequests  *prometheus.CounterVec
	RouteFallbacks prometheus.Counter
	LogCache       *prometheus.CounterVec
	AggregateTime  prometheus.Histogram
	Violations     *prometheus.CounterVec
}

// New constructs the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route pattern and status code",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RouteRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "route_requests_total",
				Help:      "Routing provider calls by provider and result",
			},
			[]string{"provider", "result"},
		),
		RouteFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_fallbacks_total",
			Help:      "Routes served by the straight-line fallback after the primary provider failed",
		}),
		LogCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "log_cache_requests_total",
				Help:      "Daily log cache lookups by result",
			},
			[]string{"result"},
		),
		AggregateTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_duration_seconds",
			Help:      "Time spent aggregating duty entries into daily logs",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),
		Violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hos_violations_total",
				Help:      "HOS violations reported in aggregated logs, by kind",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.RouteRequests,
		m.RouteFallbacks,
		m.LogCache,
		m.AggregateTime,
		m.Violations,
	)
	return m
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// IncRoute counts one routing provider call.
func (m *Metrics) IncRoute(provider, result string) {
	if m == nil {
		return
	}
	m.RouteRequests.WithLabelValues(provider, result).Inc()
}

// IncRouteFallback counts one fallback route.
func (m *Metrics) IncRouteFallback() {
	if m == nil {
		return
	}
	m.RouteFallbacks.Inc()
}

// IncLogCache counts one cache lookup.
func (m *Metrics) IncLogCache(result string) {
	if m == nil {
		return
	}
	m.LogCache.WithLabelValues(result).Inc()
}

// ObserveAggregate records aggregation latency.
func (m *Metrics) ObserveAggregate(d time.Duration) {
	if m == nil {
		return
	}
	m.AggregateTime.Observe(d.Seconds())
}

// AddViolations counts reported violations by kind.
func (m *Metrics) AddViolations(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Violations.WithLabelValues(kind).Add(float64(n))
}
