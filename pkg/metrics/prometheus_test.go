package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordSimulation("AAPL", "success", 1.2)
	r.RecordSimulation("AAPL", "error", 0.1)
	r.RecordEpisodes("AAPL", 50)
	r.RecordPolicyLoad("AAPL", true)
	r.RecordPolicyLoad("AAPL", false)
	r.RecordFinalValue("AAPL", 10512.3)
	r.RecordError("upstream")
	r.RecordLatency("fetch", 0.3)

	if got := testutil.ToFloat64(r.simulations.WithLabelValues("AAPL", "success")); got != 1 {
		t.Fatalf("success count %v", got)
	}
	if got := testutil.ToFloat64(r.episodes.WithLabelValues("AAPL")); got != 50 {
		t.Fatalf("episodes %v", got)
	}
	if got := testutil.ToFloat64(r.policyLoads.WithLabelValues("hit")); got != 1 {
		t.Fatalf("hits %v", got)
	}
	if got := testutil.ToFloat64(r.finalValue.WithLabelValues("AAPL")); got != 10512.3 {
		t.Fatalf("final value %v", got)
	}
	if n := testutil.CollectAndCount(reg); n == 0 {
		t.Fatalf("nothing registered")
	}
}
