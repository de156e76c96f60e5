package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "grokway")

	m.RecordDispatch("grok-3", "success", 50*time.Millisecond)
	m.RecordDispatch("grok-3", "success", 0)
	m.RecordDispatch("grok-3", "network", 0)
	m.RecordCompensation("grok-3")
	m.RecordReclaimed("grok-2", 2)
	m.SetPoolState("grok-3", 4, 1, 60)

	if got := testutil.ToFloat64(m.dispatchTotal.WithLabelValues("grok-3", "success")); got != 2 {
		t.Errorf("dispatch success = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.reclaimed.WithLabelValues("grok-2")); got != 2 {
		t.Errorf("reclaimed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.remainingCapacity.WithLabelValues("grok-3")); got != 60 {
		t.Errorf("remaining capacity = %v, want 60", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordDispatch("t", "o", time.Second)
	m.RecordCompensation("t")
	m.RecordReclaimed("t", 1)
	m.RecordRemoved("r")
	m.SetPoolState("t", 1, 1, 1)
	m.SetDailyUsed(1)
	m.RecordSignatureFailure()
}
