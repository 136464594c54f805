// Package observability provides Prometheus metrics and Gin middleware for
// monitoring the API.
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaigns_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records request latency in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaigns_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthFailuresTotal counts rejected authentication attempts by reason.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaigns_auth_failures_total",
			Help: "Rejected authentication attempts",
		},
		[]string{"reason"},
	)

	// SessionEventsTotal counts session lifecycle operations by event and outcome.
	SessionEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaigns_session_events_total",
			Help: "Session lifecycle events",
		},
		[]string{"event", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthFailuresTotal,
		SessionEventsTotal,
	)
}
