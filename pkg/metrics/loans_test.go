package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLoanMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLoanMetrics(reg)

	m.IncTransition("checkout", "ok")
	m.IncTransition("checkout", "conflict")
	m.IncTransition("checkout", "ok")
	m.IncPublishFailure()

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("checkout", "ok")); got != 2 {
		t.Fatalf("expected 2 ok checkouts, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("checkout", "conflict")); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.publishFailures); got != 1 {
		t.Fatalf("expected 1 publish failure, got %v", got)
	}
}

func TestLoanMetricsNilSafe(t *testing.T) {
	var m *LoanMetrics
	m.IncTransition("checkout", "ok")
	m.IncPublishFailure()

	empty := NewLoanMetrics(nil)
	empty.IncTransition("", "")
	empty.IncPublishFailure()
}
