package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Discrepancy scopes.
const (
	ScopeLine  = "line"
	ScopeOrder = "order"
)

// PricingMetrics tracks server-side repricing and checkout outcomes.
type PricingMetrics struct {
	discrepancies *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	reconcile     prometheus.Histogram
	rejections    *prometheus.CounterVec
}

// NewPricingMetrics registers pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	discrepancies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "price_discrepancy_total",
		Help: "Client submitted prices that differed from the server price beyond tolerance.",
	}, []string{"scope"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcome_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	reconcile := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_reconcile_duration_seconds",
		Help:    "Time spent re-pricing a cart on the server.",
		Buckets: prometheus.DefBuckets,
	})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "selection_rejection_total",
		Help: "Customization validation errors by error code.",
	}, []string{"code"})
	reg.MustRegister(discrepancies, outcomes, reconcile, rejections)
	return &PricingMetrics{
		discrepancies: discrepancies,
		outcomes:      outcomes,
		reconcile:     reconcile,
		rejections:    rejections,
	}
}

// IncDiscrepancy counts a client/server price mismatch for the given scope.
func (p *PricingMetrics) IncDiscrepancy(scope string) {
	if p == nil || p.discrepancies == nil {
		return
	}
	p.discrepancies.WithLabelValues(normalizeLabel(scope)).Inc()
}

// IncOutcome counts a checkout attempt ending with outcome.
func (p *PricingMetrics) IncOutcome(outcome string) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveReconcile records how long a cart reconciliation took.
func (p *PricingMetrics) ObserveReconcile(duration time.Duration) {
	if p == nil || p.reconcile == nil {
		return
	}
	p.reconcile.Observe(duration.Seconds())
}

// IncRejection counts a validation error code surfaced to a client.
func (p *PricingMetrics) IncRejection(code string) {
	if p == nil || p.rejections == nil {
		return
	}
	p.rejections.WithLabelValues(normalizeLabel(code)).Inc()
}
