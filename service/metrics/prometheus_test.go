package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMirrorsAndDelegates(t *testing.T) {
	reg := prometheus.NewRegistry()
	inner := NewRolling(10, 0)
	svc := NewPrometheus(reg, inner).(*prometheusService)

	svc.Record("player", 120, nil)
	svc.Record("player", 80, nil)
	svc.RecordFailure("crowd", "bad_gateway")

	if got := testutil.ToFloat64(svc.calls.WithLabelValues("player")); got != 2 {
		t.Fatalf("expected 2 calls, got %v", got)
	}
	if got := testutil.ToFloat64(svc.failures.WithLabelValues("crowd", "bad_gateway")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}

	snap := svc.Snapshot()
	if snap.Models["player"].Count != 2 || snap.Models["player"].AvgMs != 100 {
		t.Fatalf("inner store not updated: %+v", snap.Models["player"])
	}
	if _, ok := snap.Models["crowd"]; ok {
		t.Fatal("failures must not create rolling entries")
	}

	if n := testutil.CollectAndCount(reg, "vision_gateway_inference_latency_ms"); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}
