// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Cycle metrics
	CyclesTotal     *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	SignalsDetected prometheus.Counter
	SignalsSaved    prometheus.Counter
	SignalsDeduped  prometheus.Counter
	AutoWatchlisted prometheus.Counter

	// Source metrics
	SourceFetchLatency *prometheus.HistogramVec
	SourceFetchErrors  *prometheus.CounterVec

	// Store metrics
	StoreQueryDuration *prometheus.HistogramVec
	StoreQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "chokepoint_radar"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "cycles_total",
			Help:      "Total number of detection cycles by status",
		}, []string{"status"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "cycle_duration_seconds",
			Help:      "Detection cycle duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		SignalsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "signals_detected_total",
			Help:      "Total number of qualifying signals returned by cycles",
		}),
		SignalsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "signals_saved_total",
			Help:      "Total number of new signals persisted",
		}),
		SignalsDeduped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "signals_deduplicated_total",
			Help:      "Total number of signals skipped as recent duplicates",
		}),
		AutoWatchlisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "signals_auto_watchlisted_total",
			Help:      "Total number of high-priority signals auto-added to the watchlist",
		}),
		SourceFetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sources",
			Name:      "fetch_latency_seconds",
			Help:      "Source fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		SourceFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sources",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed source fetches",
		}, []string{"source"}),
		StoreQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Signal store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		StoreQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_errors_total",
			Help:      "Total number of failed signal store operations",
		}, []string{"operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records a completed detection cycle.
func RecordCycle(status string, durationSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
}

// RecordSignalsDetected adds to the qualifying-signal counter.
func RecordSignalsDetected(n int) {
	DefaultMetrics.SignalsDetected.Add(float64(n))
}

// RecordSignalSaved increments the saved-signal counter.
func RecordSignalSaved() {
	DefaultMetrics.SignalsSaved.Inc()
}

// RecordSignalDeduped increments the duplicate-skip counter.
func RecordSignalDeduped() {
	DefaultMetrics.SignalsDeduped.Inc()
}

// RecordAutoWatchlisted increments the auto-watchlist counter.
func RecordAutoWatchlisted() {
	DefaultMetrics.AutoWatchlisted.Inc()
}

// RecordSourceFetch records a source fetch attempt.
func RecordSourceFetch(source string, seconds float64, err error) {
	DefaultMetrics.SourceFetchLatency.WithLabelValues(source).Observe(seconds)
	if err != nil {
		DefaultMetrics.SourceFetchErrors.WithLabelValues(source).Inc()
	}
}

// RecordStoreQuery records a signal store operation.
func RecordStoreQuery(operation string, seconds float64, err error) {
	DefaultMetrics.StoreQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.StoreQueryErrors.WithLabelValues(operation).Inc()
	}
}
