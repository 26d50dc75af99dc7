// Package metrics exposes Prometheus instrumentation for the relay.
// Counters are registered via promauto and scraped by cmd/relay-server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhooksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_webhooks_received_total",
			Help: "Total number of webhook deliveries received",
		},
		[]string{"provider"},
	)

	UnitsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_units_processed_total",
			Help: "Total number of work units fully processed",
		},
		[]string{"provider"},
	)

	UnitsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_units_skipped_total",
			Help: "Total number of work units skipped (identity miss)",
		},
		[]string{"provider"},
	)

	MetricsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_health_metrics_written_total",
			Help: "Total number of normalized health metric rows written",
		},
		[]string{"provider"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_provider_failures_total",
			Help: "Total number of failed provider round trips",
		},
		[]string{"provider"},
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_ingest_duration_seconds",
			Help:    "End-to-end processing time per work unit",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)
