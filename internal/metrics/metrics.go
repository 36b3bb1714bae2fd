package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the sync and ingest paths, exported on /metrics.
var (
	RecordsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_records_upserted_total",
		Help: "Remote records reconciled into the local mirror, by entity.",
	}, []string{"entity"})

	RecordFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_record_failures_total",
		Help: "Records skipped because mapping or upsert failed, by entity.",
	}, []string{"entity"})

	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_sync_runs_total",
		Help: "Full synchronization passes, by outcome.",
	}, []string{"status"})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mirror_webhook_events_total",
		Help: "Inbound webhook deliveries, by outcome.",
	}, []string{"status"})

	CustomersBackfilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mirror_customers_backfilled_total",
		Help: "Customer rows completed by the backfill pass.",
	})
)
