// Package metrics defines the Prometheus collectors for the telemetry
// pipeline. Collection is in-process and best-effort: nothing here can fail
// the primary operation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline terminal transitions. Every event ends in exactly one of
	// stored, rejected or failed.
	EventsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_events_stored_total",
			Help: "Total number of events validated, enriched and durably stored",
		},
	)

	EventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_events_rejected_total",
			Help: "Total number of events rejected during validation",
		},
		[]string{"reason"},
	)

	EventsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_events_failed_total",
			Help: "Total number of events that failed on the storage path",
		},
	)

	// Durations.
	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemetry_processing_duration_seconds",
			Help:    "End-to-end duration of successful pipeline runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	FailureDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemetry_failure_duration_seconds",
			Help:    "Duration of pipeline runs that ended in a storage failure",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telemetry_query_duration_seconds",
			Help:    "Duration of latest-record lookups, labelled by outcome",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// Dead-letter path.
	DeadLettered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_dead_lettered_total",
			Help: "Total number of events diverted to the dead-letter queue",
		},
	)

	RetryAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_retry_attempts_total",
			Help: "Total number of storage retry attempts",
		},
	)

	// Intake.
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_rate_limit_hits_total",
			Help: "Total number of intake requests blocked by rate limiting",
		},
	)
)
