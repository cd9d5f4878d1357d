package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMaintenanceTaskMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMaintenanceTaskMetrics(reg)
	task := "2024061501_required_group_minimums"
	metrics.ObserveDuration(task, 250*time.Millisecond)
	metrics.IncSuccess(task)
	metrics.IncFailure(task)
	metrics.IncSkipped(task)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	for _, name := range []string{"maintenance_task_success", "maintenance_task_failure", "maintenance_task_skipped"} {
		if got, err := fetchCounterValue(mfs, name, "task", task); err != nil {
			t.Fatalf("fetch %s: %v", name, err)
		} else if got != 1 {
			t.Fatalf("expected %s=1, got %f", name, got)
		}
	}

	if got, err := fetchHistogramSum(mfs, "maintenance_task_duration_seconds", "task", task); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPricingMetricsCountsDiscrepanciesAndOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPricingMetrics(reg)
	metrics.IncDiscrepancy(ScopeLine)
	metrics.IncDiscrepancy(ScopeLine)
	metrics.IncDiscrepancy(ScopeOrder)
	metrics.IncOutcome("created")
	metrics.IncRejection("BELOW_MINIMUM")
	metrics.ObserveReconcile(10 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "price_discrepancy_total", "scope", ScopeLine); err != nil || got != 2 {
		t.Fatalf("expected 2 line discrepancies, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "price_discrepancy_total", "scope", ScopeOrder); err != nil || got != 1 {
		t.Fatalf("expected 1 order discrepancy, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "checkout_outcome_total", "outcome", "created"); err != nil || got != 1 {
		t.Fatalf("expected 1 created outcome, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "selection_rejection_total", "code", "BELOW_MINIMUM"); err != nil || got != 1 {
		t.Fatalf("expected 1 rejection, got %f err=%v", got, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var pricing *PricingMetrics
	pricing.IncDiscrepancy(ScopeLine)
	pricing.ObserveReconcile(time.Second)
	NewPricingMetrics(nil).IncOutcome("created")
	NewMaintenanceTaskMetrics(nil).IncSuccess("task")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
