// Package metrics exposes Prometheus instrumentation for the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shadowagent_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "path", "code"},
	)

	ThreatsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shadowagent_threats_created_total",
			Help: "Total number of threats recorded",
		},
		[]string{"type"},
	)

	AlertsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shadowagent_alerts_created_total",
			Help: "Total number of alerts recorded",
		},
	)

	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shadowagent_users_registered_total",
			Help: "Total number of user signups",
		},
	)
)
