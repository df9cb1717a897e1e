package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	sweepDuration         prometheus.Histogram
	sweepsTotal           prometheus.Counter
	evaluationsCompleted  *prometheus.CounterVec
	evaluationsErrored    prometheus.Counter
	recordsSweptTotal     *prometheus.CounterVec
	transitionsDropped    prometheus.Counter
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors for the evaluation pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		sweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evaluation_sweep_duration_seconds",
			Help:    "Duration of scheduler sweeps over pending and scheduled records.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		})

		sweepsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evaluation_sweeps_total",
			Help: "Total number of scheduler sweeps executed.",
		})

		evaluationsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluations_completed_total",
			Help: "Evaluations that reached COMPLETED, by narrative source.",
		}, []string{"source"})

		evaluationsErrored = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evaluations_errored_total",
			Help: "Records marked ERROR during orchestration.",
		})

		recordsSweptTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evaluation_records_swept_total",
			Help: "Records examined per sweep, by pre-transition status.",
		}, []string{"status"})

		transitionsDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evaluation_transitions_dropped_total",
			Help: "Transitions silently dropped because another sweep won the status race.",
		})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(
			sweepDuration,
			sweepsTotal,
			evaluationsCompleted,
			evaluationsErrored,
			recordsSweptTotal,
			transitionsDropped,
			httpRequestsTotal,
			httpLatencySeconds,
		)
	})
}

// SweepDuration exposes the sweep duration histogram.
func SweepDuration() prometheus.Histogram {
	RegisterMetrics()
	return sweepDuration
}

// SweepsTotal exposes the sweep counter.
func SweepsTotal() prometheus.Counter {
	RegisterMetrics()
	return sweepsTotal
}

// EvaluationsCompleted exposes the completion counter labelled by source.
func EvaluationsCompleted() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsCompleted
}

// EvaluationsErrored exposes the ERROR transition counter.
func EvaluationsErrored() prometheus.Counter {
	RegisterMetrics()
	return evaluationsErrored
}

// RecordsSwept exposes the per-status record counter.
func RecordsSwept() *prometheus.CounterVec {
	RegisterMetrics()
	return recordsSweptTotal
}

// TransitionsDropped exposes the dropped transition counter.
func TransitionsDropped() prometheus.Counter {
	RegisterMetrics()
	return transitionsDropped
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}
