package machine

import (
	"encoding/hex"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zeebo/xxh3"
)

var (
	// dispatchesTotal counts dispatches by machine, event, and outcome
	// (success, error, or ignored).
	dispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "machine_dispatches_total",
		Help: "Total number of event dispatches by machine, event, and outcome",
	}, []string{"machine", "event", "outcome"})

	// transitionsTotal counts executed transitions.
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "machine_transitions_total",
		Help: "Total number of executed transitions by machine, from_state, to_state, and event",
	}, []string{"machine", "from_state", "to_state", "event"})

	// dispatchDuration tracks end-to-end dispatch time, including queueing
	// of actions but not time spent waiting behind earlier dispatches.
	dispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "machine_dispatch_duration_seconds",
		Help:    "Duration of event dispatches by machine and outcome",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"machine", "outcome"})

	// actionDuration tracks individual action bodies.
	actionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "machine_action_duration_seconds",
		Help:    "Duration of action execution by machine, phase, and state",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"machine", "phase", "state"})

	// backlogDepth tracks the per-instance dispatch backlog.
	backlogDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "machine_dispatch_backlog",
		Help: "Number of queued dispatches awaiting serialized execution, by machine and instance",
	}, []string{"machine", "instance_hash"})

	// instancesStarted counts Start calls per machine.
	instancesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "machine_instances_started_total",
		Help: "Total number of instances started per machine",
	}, []string{"machine"})
)

// hashInstanceID shortens an instance id to a stable 8-character label value,
// keeping metric cardinality readable without leaking full ids.
func hashInstanceID(id string) string {
	if id == "" {
		return "unknown"
	}

	sum := xxh3.HashString128(id).Bytes()

	return hex.EncodeToString(sum[:4])
}
