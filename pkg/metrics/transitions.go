package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TransitionMetrics records outcomes of request lifecycle transitions.
type TransitionMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewTransitionMetrics registers the transition metrics on the provided registerer.
func NewTransitionMetrics(reg prometheus.Registerer) *TransitionMetrics {
	if reg == nil {
		return &TransitionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "request_transition_duration_seconds",
		Help:    "Duration of request lifecycle transitions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"transition"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "request_transition_total",
		Help: "Request lifecycle transitions by transition and outcome.",
	}, []string{"transition", "outcome"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_reservation_rejected_total",
		Help: "Approvals rejected because available stock was insufficient.",
	}, []string{"category"})
	reg.MustRegister(duration, outcomes, rejected)
	return &TransitionMetrics{
		duration: duration,
		outcomes: outcomes,
		rejected: rejected,
	}
}

// ObserveDuration records the duration for the named transition.
func (m *TransitionMetrics) ObserveDuration(transition string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(transition)).Observe(duration.Seconds())
}

// IncOutcome increments the counter for the named transition and outcome.
func (m *TransitionMetrics) IncOutcome(transition, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(transition), normalizeLabel(outcome)).Inc()
}

// IncStockRejection increments the insufficient-stock counter for a category.
func (m *TransitionMetrics) IncStockRejection(category string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(category)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
