package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestTransitionMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTransitionMetrics(reg)

	m.IncAttempt("order", "accept", "applied")
	m.IncAttempt("order", "accept", "rejected")
	m.ObserveLockWait("order", 20*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	names := map[string]bool{}
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	if !names["transition_attempts_total"] {
		t.Fatalf("expected transition_attempts_total to be registered")
	}
	if !names["transition_lock_wait_seconds"] {
		t.Fatalf("expected transition_lock_wait_seconds to be registered")
	}
}

func TestNilRegistererIsSafe(t *testing.T) {
	m := NewTransitionMetrics(nil)
	m.IncAttempt("order", "accept", "applied")
	m.ObserveLockWait("order", time.Millisecond)

	c := NewCronJobMetrics(nil)
	c.IncSuccess("sweep")
	c.IncFailure("sweep")
	c.ObserveDuration("sweep", time.Second)
}
