package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports service operation counters and latency
// histograms through a prometheus registry.
type PrometheusMetricsRecorder struct {
	results   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder constructs a recorder and registers its
// collectors with the supplied registerer. A nil registerer falls back to
// the default prometheus registry.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rec := &PrometheusMetricsRecorder{
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessioncore",
			Subsystem: "workspace",
			Name:      "operations_total",
			Help:      "Workspace service operations by result.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sessioncore",
			Subsystem: "workspace",
			Name:      "operation_duration_seconds",
			Help:      "Workspace service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := reg.Register(rec.results); err != nil {
		return nil, err
	}
	if err := reg.Register(rec.durations); err != nil {
		return nil, err
	}
	return rec, nil
}

// Observe records a service operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.results.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}
