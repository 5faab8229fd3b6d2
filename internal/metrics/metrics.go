// Package metrics exposes Prometheus instrumentation for checkpoint decisions,
// permission fetches and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"admin-portal/internal/guard"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "admin_portal"

const (
	CheckpointAuth       = "auth"
	CheckpointPermission = "permission"

	FetchSuccess = "success"
	FetchError   = "error"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds the gateway's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DecisionsTotal          *prometheus.CounterVec
	UncheckedRoutesTotal    *prometheus.CounterVec
	PermissionFetchTotal    *prometheus.CounterVec
	PermissionFetchDuration prometheus.Histogram
	CacheRequestsTotal      *prometheus.CounterVec
	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them, plus the Go and process
// collectors, on registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guard_decisions_total",
				Help:      "Checkpoint decisions by checkpoint, verdict and reason",
			},
			[]string{"checkpoint", "verdict", "reason"},
		),
		UncheckedRoutesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "guard_unchecked_routes_total",
				Help:      "Navigations allowed because the route declared no permission requirement",
			},
			[]string{"route"},
		),
		PermissionFetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "permission_fetch_total",
				Help:      "Asynchronous permission fetches by result",
			},
			[]string{"result"},
		),
		PermissionFetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "permission_fetch_duration_seconds",
				Help:      "Duration of asynchronous permission fetches",
				Buckets:   prometheus.DefBuckets,
			},
		),
		CacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "permission_cache_requests_total",
				Help:      "Permission snapshot cache lookups by result",
			},
			[]string{"result"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.DecisionsTotal,
		m.UncheckedRoutesTotal,
		m.PermissionFetchTotal,
		m.PermissionFetchDuration,
		m.CacheRequestsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOutcome records the decision of the checkpoint that ended a navigation
func (m *Metrics) ObserveOutcome(route string, out guard.Outcome) {
	if m == nil {
		return
	}

	checkpoint := CheckpointPermission
	if out.State == guard.StateRedirectLogin {
		checkpoint = CheckpointAuth
	}
	m.DecisionsTotal.WithLabelValues(checkpoint, out.Decision.Verdict.String(), out.Decision.Reason).Inc()

	if out.Decision.Unchecked {
		m.UncheckedRoutesTotal.WithLabelValues(route).Inc()
	}
}

// ObserveFetch records one permission fetch
func (m *Metrics) ObserveFetch(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := FetchSuccess
	if err != nil {
		result = FetchError
	}
	m.PermissionFetchTotal.WithLabelValues(result).Inc()
	m.PermissionFetchDuration.Observe(elapsed.Seconds())
}

// ObserveCache records one snapshot cache lookup
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency keyed by the matched route
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if status < http.StatusBadRequest {
					status = http.StatusInternalServerError
				}
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
