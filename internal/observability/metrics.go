// Package observability exposes Prometheus collectors for the service.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	batchesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "carbonlog",
		Subsystem: "pipeline",
		Name:      "batches_processed_total",
		Help:      "Number of text batches run through the extraction pipeline.",
	})

	sentencesResolved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "carbonlog",
		Subsystem: "pipeline",
		Name:      "sentences_resolved_total",
		Help:      "Number of sentences converted into activity records.",
	})

	sentencesFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carbonlog",
		Subsystem: "pipeline",
		Name:      "sentences_failed_total",
		Help:      "Number of sentences that failed to resolve, labeled by reason.",
	}, []string{"reason"})

	oracleFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "carbonlog",
		Subsystem: "pipeline",
		Name:      "oracle_fallbacks_total",
		Help:      "Number of sentences classified by the deterministic fallback instead of the oracle.",
	})

	recordPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carbonlog",
		Subsystem: "persistence",
		Name:      "last_record_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity record persisted to the history store.",
	})
)

func init() {
	prometheus.MustRegister(batchesProcessed, sentencesResolved, sentencesFailed, oracleFallbacks, recordPersistGauge)
}

// RecordBatchProcessed increments the batch counter.
func RecordBatchProcessed() {
	batchesProcessed.Inc()
}

// RecordSentenceResolved increments the resolved-sentence counter.
func RecordSentenceResolved() {
	sentencesResolved.Inc()
}

// RecordSentenceFailed increments the failure counter for a reason.
func RecordSentenceFailed(reason string) {
	sentencesFailed.WithLabelValues(reason).Inc()
}

// RecordOracleFallback increments the fallback counter.
func RecordOracleFallback() {
	oracleFallbacks.Inc()
}

// RecordPersisted updates the persistence watermark gauge.
func RecordPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	recordPersistGauge.Set(float64(ts.Unix()))
}
