package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// histogramSampleCount reads how many observations the commit duration
// histogram holds under outcome.
func histogramSampleCount(t *testing.T, outcome string) uint64 {
	t.Helper()
	var m dto.Metric
	if err := commitDuration.WithLabelValues(outcome).(prometheus.Histogram).Write(&m); err != nil {
		t.Fatalf("reading commit duration histogram: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestCountersIncAdd(t *testing.T) {
	RegisterMetrics()
	c := NewCounters()

	before := testutil.ToFloat64(commitFull)
	c.Inc("trans_commit_full")
	after := testutil.ToFloat64(commitFull)
	if after != before+1 {
		t.Errorf("expected trans_commit_full to increment by 1, got %v -> %v", before, after)
	}

	bytesBefore := testutil.ToFloat64(segWriteBytes)
	c.Add("trans_level0_seg_write_bytes", 4096)
	bytesAfter := testutil.ToFloat64(segWriteBytes)
	if bytesAfter != bytesBefore+4096 {
		t.Errorf("expected trans_level0_seg_write_bytes to increase by 4096, got %v -> %v", bytesBefore, bytesAfter)
	}

	// Unknown names are silently dropped, not panics.
	c.Inc("not_a_real_counter")
	c.Add("also_not_real", 1)
}

func TestObserveCommitDuration(t *testing.T) {
	RegisterMetrics()
	c := NewCounters()

	before := histogramSampleCount(t, "ok")
	c.ObserveCommitDuration("ok", 0.01)
	after := histogramSampleCount(t, "ok")
	if after <= before {
		t.Errorf("expected commit duration histogram count to increase, got %v -> %v", before, after)
	}
}

func TestSetReservations(t *testing.T) {
	RegisterMetrics()
	c := NewCounters()

	c.SetReservations(3)
	if got := testutil.ToFloat64(heldReservations); got != 3 {
		t.Errorf("expected reservations gauge to read 3, got %v", got)
	}

	c.SetReservations(0)
	if got := testutil.ToFloat64(heldReservations); got != 0 {
		t.Errorf("expected reservations gauge to read 0, got %v", got)
	}
}
