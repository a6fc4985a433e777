package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TransitionMetrics tracks gateway transition attempts and lock waits.
type TransitionMetrics struct {
	attempts *prometheus.CounterVec
	lockWait *prometheus.HistogramVec
}

// NewTransitionMetrics registers the transition metrics on the provided registerer.
func NewTransitionMetrics(reg prometheus.Registerer) *TransitionMetrics {
	if reg == nil {
		return &TransitionMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transition_attempts_total",
		Help: "Transition attempts by machine, action and outcome.",
	}, []string{"machine", "action", "outcome"})
	lockWait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transition_lock_wait_seconds",
		Help:    "Time spent waiting for the per-order lock.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"machine"})
	reg.MustRegister(attempts, lockWait)
	return &TransitionMetrics{attempts: attempts, lockWait: lockWait}
}

// IncAttempt counts one transition attempt with its outcome.
func (t *TransitionMetrics) IncAttempt(machine, action, outcome string) {
	if t == nil || t.attempts == nil {
		return
	}
	t.attempts.WithLabelValues(normalizeLabel(machine), normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

// ObserveLockWait records how long lock acquisition took.
func (t *TransitionMetrics) ObserveLockWait(machine string, wait time.Duration) {
	if t == nil || t.lockWait == nil {
		return
	}
	t.lockWait.WithLabelValues(normalizeLabel(machine)).Observe(wait.Seconds())
}
