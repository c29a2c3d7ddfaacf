package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Access control
	AccessDecisionsTotal *prometheus.CounterVec

	// Sessions and list state
	SessionsTotal      *prometheus.CounterVec
	ListFetchesTotal   *prometheus.CounterVec
	ListControllers    prometheus.Gauge
	ListSweptTotal     prometheus.Counter
	ExportBytes        prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamdash_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "teamdash_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		AccessDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamdash_access_decisions_total",
				Help: "Route and capability decisions by outcome",
			},
			[]string{"kind", "target", "role", "outcome"},
		),

		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamdash_sessions_total",
				Help: "Session lifecycle events",
			},
			[]string{"event"},
		),
		ListFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teamdash_list_fetches_total",
				Help: "List page fetches by page and outcome",
			},
			[]string{"page", "outcome"},
		),
		ListControllers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "teamdash_list_controllers",
				Help: "Live per-session list controllers",
			},
		),
		ListSweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "teamdash_list_controllers_swept_total",
				Help: "List controllers dropped after the idle timeout",
			},
		),
		ExportBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "teamdash_roster_export_bytes",
				Help:    "Size of generated roster workbooks in bytes",
				Buckets: prometheus.ExponentialBuckets(4096, 4, 8),
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AccessDecisionsTotal,
		m.SessionsTotal,
		m.ListFetchesTotal,
		m.ListControllers,
		m.ListSweptTotal,
		m.ExportBytes,
	)

	return m
}

// ObserveAccess records one route guard or capability gate decision
func (m *Metrics) ObserveAccess(kind, target, role string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.AccessDecisionsTotal.WithLabelValues(kind, target, role, outcome).Inc()
}

// ObserveListFetch records a list page fetch
func (m *Metrics) ObserveListFetch(page string, failed, stale bool) {
	outcome := "ok"
	switch {
	case stale:
		outcome = "stale"
	case failed:
		outcome = "error"
	}
	m.ListFetchesTotal.WithLabelValues(page, outcome).Inc()
}

// Middleware instruments gin requests. The matched route pattern is used as
// label so path parameters do not explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
