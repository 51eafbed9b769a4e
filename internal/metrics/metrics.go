// Package metrics provides Prometheus metrics for the aggregator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsaggregator"

var (
	// FetchItemsTotal counts fetched items by outcome (created, duplicate, malformed, failed).
	FetchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_items_total",
			Help:      "Items seen by fetchers, by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// FetchRunsTotal counts fetch runs per source.
	FetchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_runs_total",
			Help:      "Fetch runs by source and status",
		},
		[]string{"source", "status"},
	)

	// EnrichmentsTotal counts enrichment outcomes by terminal state.
	EnrichmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichments_total",
			Help:      "Enrichment runs by resulting state",
		},
		[]string{"state"},
	)

	// SummaryCacheTotal counts summary cache lookups.
	SummaryCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_cache_total",
			Help:      "Summary cache lookups by result",
		},
		[]string{"result"},
	)

	// DelegateCallsTotal counts calls to external models.
	DelegateCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delegate_calls_total",
			Help:      "External model calls by delegate, operation and status",
		},
		[]string{"delegate", "operation", "status"},
	)

	// DelegateBreakerState exposes breaker state per delegate operation (0 closed, 1 half-open, 2 open).
	DelegateBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "delegate_breaker_state",
			Help:      "Circuit breaker state by delegate and operation",
		},
		[]string{"delegate", "operation"},
	)

	// QueueDepth reports jobs waiting per lane, with delayed retries under "delayed".
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Jobs waiting by queue lane",
		},
		[]string{"queue"},
	)

	// JobsTotal counts processed background jobs.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Background jobs by queue, name and status",
		},
		[]string{"queue", "name", "status"},
	)

	// JobDuration measures job handler duration.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of background job handlers in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"name"},
	)
)

// RecordFetchItem records one item outcome for a source.
func RecordFetchItem(source, outcome string) {
	FetchItemsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordFetchRun records a completed fetch run.
func RecordFetchRun(source, status string) {
	FetchRunsTotal.WithLabelValues(source, status).Inc()
}

// RecordEnrichment records an enrichment state transition.
func RecordEnrichment(state string) {
	EnrichmentsTotal.WithLabelValues(state).Inc()
}

// RecordSummaryCache records a cache hit or miss.
func RecordSummaryCache(result string) {
	SummaryCacheTotal.WithLabelValues(result).Inc()
}

// RecordDelegateCall records an external model call.
func RecordDelegateCall(delegate, operation, status string) {
	DelegateCallsTotal.WithLabelValues(delegate, operation, status).Inc()
}

// RecordJob records a finished job.
func RecordJob(queue, name, status string, duration float64) {
	JobsTotal.WithLabelValues(queue, name, status).Inc()
	JobDuration.WithLabelValues(name).Observe(duration)
}

// SetBreakerState records the current breaker state of a delegate operation.
func SetBreakerState(delegate, operation string, state float64) {
	DelegateBreakerState.WithLabelValues(delegate, operation).Set(state)
}

// SetQueueDepth records how many jobs wait in a lane.
func SetQueueDepth(queue string, depth int64) {
	QueueDepth.WithLabelValues(queue).Set(float64(depth))
}
