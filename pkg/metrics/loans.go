package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LoanMetrics records checkout/return outcomes and notifier delivery failures.
type LoanMetrics struct {
	transitions     *prometheus.CounterVec
	publishFailures prometheus.Counter
}

// NewLoanMetrics registers the loan metrics on the provided registerer.
func NewLoanMetrics(reg prometheus.Registerer) *LoanMetrics {
	if reg == nil {
		return &LoanMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loan_transitions_total",
		Help: "Copy status transitions attempted by the checkout/return engine.",
	}, []string{"op", "outcome"})
	publishFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "realtime_publish_failures_total",
		Help: "Copy status events that could not be broadcast.",
	})
	reg.MustRegister(transitions, publishFailures)
	return &LoanMetrics{
		transitions:     transitions,
		publishFailures: publishFailures,
	}
}

// IncTransition counts one engine outcome, e.g. ("checkout", "ok").
func (m *LoanMetrics) IncTransition(op, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncPublishFailure counts one swallowed notifier error.
func (m *LoanMetrics) IncPublishFailure() {
	if m == nil || m.publishFailures == nil {
		return
	}
	m.publishFailures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
