package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook delivery metrics
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_webhook_deliveries_total",
			Help: "Total number of webhook deliveries received",
		},
		[]string{"event", "status"},
	)

	SignatureFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_webhook_signature_failures_total",
			Help: "Total number of deliveries rejected for a bad signature",
		},
	)

	// Evidence event metrics
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_events_ingested_total",
			Help: "Total number of evidence events forwarded upstream",
		},
		[]string{"event_type"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_events_dropped_total",
			Help: "Total number of evidence events dropped before forwarding",
		},
		[]string{"reason"},
	)

	// Dedupe metrics
	DedupeHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_dedupe_hits_total",
			Help: "Total number of events suppressed as webhook replays",
		},
	)

	DedupeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_dedupe_errors_total",
			Help: "Total number of dedupe store failures (failed open)",
		},
	)

	// Upstream metrics
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_upstream_errors_total",
			Help: "Total number of failed calls to the Kairos service",
		},
		[]string{"call"},
	)

	ForwardDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_forward_duration_seconds",
			Help:    "Duration of upstream ingest calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
