package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentals_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rentals_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentals_messages_created_total",
			Help: "Total messages created",
		},
		[]string{"kind"}, // "inquiry" or "reply"
	)

	InboxCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentals_inbox_cache_lookups_total",
			Help: "Inbox cache lookups",
		},
		[]string{"result"}, // "hit", "miss" or "error"
	)

	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentals_event_publish_failures_total",
			Help: "Message events that could not be published",
		},
		[]string{"type"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rentals_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
