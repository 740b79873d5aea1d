package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports operation counters and latency
// histograms labelled by operation and status.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder builds a recorder and registers its
// collectors with reg. A nil reg leaves the collectors unregistered.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	r := &PrometheusMetricsRecorder{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "monkeycore",
				Subsystem: "service",
				Name:      "operations_total",
				Help:      "Ledger operations by outcome.",
			},
			[]string{"operation", "status"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "monkeycore",
				Subsystem: "service",
				Name:      "operation_duration_seconds",
				Help:      "Ledger operation duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
	}
	if reg != nil {
		for _, c := range r.Collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Collectors returns the recorder's collectors.
func (r *PrometheusMetricsRecorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.operations, r.durations}
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	status := statusLabel(success)
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation, status).Observe(duration.Seconds())
}
