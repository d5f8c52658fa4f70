// Package metrics exposes Prometheus counters/histograms for processor
// invocations, mirroring the teacher's metrics.RecordFunctionExecution
// call site in internal/services/functions/service.go.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	invocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fh_processor_invocations_total",
		Help: "Total processor invocations by terminal status.",
	}, []string{"status"})

	invocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fh_processor_invocation_duration_seconds",
		Help:    "Processor invocation duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	auditItemsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fh_audit_items_written_total",
		Help: "Total audit log entries persisted.",
	})
)

// RecordInvocation records one processor run's terminal status and
// duration in seconds.
func RecordInvocation(status string, seconds float64) {
	invocations.WithLabelValues(status).Inc()
	invocationDuration.WithLabelValues(status).Observe(seconds)
}

// RecordAuditItem increments the audit log write counter.
func RecordAuditItem() {
	auditItemsWritten.Inc()
}
