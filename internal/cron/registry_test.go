package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	sweep := &stubJob{name: "completion-sweep"}
	other := &stubJob{name: "other"}
	registry.Register(sweep)
	registry.Register(nil)
	registry.Register(other)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != sweep || jobs[1] != other {
		t.Fatalf("jobs returned out of order")
	}

	names := registry.Names()
	if len(names) != 2 || names[0] != "completion-sweep" || names[1] != "other" {
		t.Fatalf("unexpected names %v", names)
	}

	// ensure caller cannot mutate internal slice
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestNewRegistryPreloadsJobs(t *testing.T) {
	sweep := &stubJob{name: "completion-sweep"}
	registry := NewRegistry(sweep, nil)

	if got := len(registry.Jobs()); got != 1 {
		t.Fatalf("expected 1 job, got %d", got)
	}
}
