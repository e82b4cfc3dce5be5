package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saviya_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saviya_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saviya_notifications_created_total",
			Help: "Persisted notifications by type",
		},
		[]string{"type"},
	)

	// NotificationDispatch counts best-effort deliveries per channel and
	// outcome (sent, failed, skipped).
	NotificationDispatch = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saviya_notification_dispatch_total",
			Help: "Notification side-channel deliveries by channel and result",
		},
		[]string{"channel", "result"},
	)

	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "saviya_realtime_connections",
			Help: "Open realtime connections",
		},
	)

	RealtimeEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "saviya_realtime_events_dropped_total",
			Help: "Realtime events dropped because a client buffer was full",
		},
	)

	MailBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "saviya_mail_breaker_open",
			Help: "1 when the outbound mail circuit breaker is open",
		},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saviya_job_runs_total",
			Help: "Scheduled job runs by job and result",
		},
		[]string{"job", "result"},
	)
)
