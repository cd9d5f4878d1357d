package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MaintenanceTaskMetrics records outcomes of catalog maintenance tasks.
type MaintenanceTaskMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
}

// NewMaintenanceTaskMetrics registers the task metrics on the provided registerer.
func NewMaintenanceTaskMetrics(reg prometheus.Registerer) *MaintenanceTaskMetrics {
	if reg == nil {
		return &MaintenanceTaskMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maintenance_task_duration_seconds",
		Help:    "Duration of maintenance tasks in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_task_success",
		Help: "Successful maintenance task executions.",
	}, []string{"task"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_task_failure",
		Help: "Failed maintenance task executions.",
	}, []string{"task"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maintenance_task_skipped",
		Help: "Maintenance tasks skipped because they were already applied.",
	}, []string{"task"})
	reg.MustRegister(duration, success, failure, skipped)
	return &MaintenanceTaskMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		skipped:  skipped,
	}
}

// ObserveDuration records the duration for the named task.
func (m *MaintenanceTaskMetrics) ObserveDuration(task string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(task)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named task.
func (m *MaintenanceTaskMetrics) IncSuccess(task string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(task)).Inc()
}

// IncFailure increments the failure counter for the named task.
func (m *MaintenanceTaskMetrics) IncFailure(task string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(task)).Inc()
}

// IncSkipped increments the skip counter for the named task.
func (m *MaintenanceTaskMetrics) IncSkipped(task string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(task)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
