package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	FriendTransitions *prometheus.CounterVec
	FollowTransitions *prometheus.CounterVec
	RoleChanges       *prometheus.CounterVec
	GroupEvents       *prometheus.CounterVec
	PushDeliveries    *prometheus.CounterVec
	GeocodeLookups    *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memomap",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "memomap",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		FriendTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memomap",
			Name:      "friend_transitions_total",
			Help:      "Friend relationship transitions.",
		}, []string{"transition"}),
		FollowTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memomap",
			Name:      "follow_transitions_total",
			Help:      "Follow relationship transitions.",
		}, []string{"transition"}),
		RoleChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memomap",
			Name:      "group_role_changes_total",
			Help:      "Group role changes by assigned role.",
		}, []string{"role"}),
		GroupEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memomap",
			Name:      "group_events_total",
			Help:      "Group lifecycle events.",
		}, []string{"event"}),
		PushDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memomap",
			Name:      "push_deliveries_total",
			Help:      "Web push deliveries by result.",
		}, []string{"result"}),
		GeocodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "memomap",
			Name:      "geocode_lookups_total",
			Help:      "Geocoding lookups by kind and source.",
		}, []string{"kind", "source"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.FriendTransitions,
		m.FollowTransitions,
		m.RoleChanges,
		m.GroupEvents,
		m.PushDeliveries,
		m.GeocodeLookups,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per registered route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			method := c.Request().Method
			m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
