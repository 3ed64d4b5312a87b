package middleware

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/comalice/storex"
)

func TestInstrumentCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}

	st := newStore(t,
		Instrument[int](m, "counter"),
		Guard(func(state int, a storex.Action) bool { return a.Type != "BLOCKED" }),
	)

	for i := 0; i < 3; i++ {
		if _, err := st.Dispatch(storex.NewAction("INC", nil)); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = st.Dispatch(storex.NewAction("BLOCKED", nil))
	_, _ = st.Dispatch(42)

	if got := testutil.ToFloat64(m.dispatches.WithLabelValues("counter", "INC", "ok")); got != 3 {
		t.Errorf("ok INC count %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.dispatches.WithLabelValues("counter", "BLOCKED", "rejected")); got != 1 {
		t.Errorf("rejected count %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.dispatches.WithLabelValues("counter", "non-action", "error")); got != 1 {
		t.Errorf("non-action error count %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.duration); n != 3 {
		t.Errorf("histogram series %d, want 3", n)
	}
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("second registration should reuse collectors: %v", err)
	}
	if first.dispatches != second.dispatches || first.duration != second.duration {
		t.Error("expected the already registered collectors to be returned")
	}
}
