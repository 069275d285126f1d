package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency (seconds).
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Database query latency (seconds).
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	// Queries that exceeded the slow-query threshold.
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
	)

	// Entity creation counts.
	EntityCreatedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entity_created_count",
			Help: "Total number of entities created",
		},
		[]string{"entity"}, // entity: project, task, attachment
	)

	// Attachment payload traffic through the storage backend (bytes).
	AttachmentBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_payload_bytes_total",
			Help: "Total attachment payload bytes moved through storage",
		},
		[]string{"direction"}, // direction: upload, download
	)

	// Tokens rejected by the auth middleware.
	AuthRejectedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejected_count",
			Help: "Total number of requests rejected by the auth middleware",
		},
		[]string{"reason"}, // reason: missing, invalid, revoked
	)
)
