// Package metrics регистрирует Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barterhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barterhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ExchangeTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barterhub_exchange_transitions_total",
			Help: "Exchange status transitions by target status",
		},
		[]string{"status"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barterhub_notifications_created_total",
			Help: "Notifications written by type",
		},
		[]string{"type"},
	)

	CascadeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barterhub_cascade_failures_total",
			Help: "Best-effort side effects that failed, by step",
		},
		[]string{"step"},
	)

	RealtimeDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barterhub_realtime_deliveries_total",
			Help: "Realtime notification deliveries by result",
		},
		[]string{"result"},
	)
)
