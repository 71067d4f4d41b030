package metrics

import "github.com/prometheus/client_golang/prometheus"

var EventsIngested = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "tw_events_ingested_total",
		Help: "Number of new threat events written to the store.",
	},
)

var EventsDuplicate = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "tw_events_duplicate_total",
		Help: "Number of fetched events skipped because they were already stored.",
	},
)

var FetchRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tw_fetch_runs_total",
		Help: "Number of ingestion cycles, by outcome.",
	},
	[]string{"outcome"},
)

var ActiveObservers = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "tw_observers_active",
		Help: "Number of currently connected websocket observers.",
	},
)

var BroadcastDeliveries = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "tw_broadcast_deliveries_total",
		Help: "Number of successful broadcast message deliveries.",
	},
)

var BroadcastFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "tw_broadcast_failures_total",
		Help: "Number of failed broadcast deliveries (observer pruned).",
	},
)

var WebhookDeliveries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tw_webhook_deliveries_total",
		Help: "Number of webhook notification attempts, by outcome.",
	},
	[]string{"outcome"},
)

func RegisterMetrics() {
	prometheus.MustRegister(EventsIngested, EventsDuplicate, FetchRuns,
		ActiveObservers, BroadcastDeliveries, BroadcastFailures,
		WebhookDeliveries)
}
