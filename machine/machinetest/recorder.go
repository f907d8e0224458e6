package machinetest

import (
	"context"
	"sync"
	"time"

	"github.com/flowstate-dev/flowstate/machine"
)

// Kind classifies a trace entry.
type Kind string

const (
	KindDispatchStarted   Kind = "dispatch_started"
	KindEventIgnored      Kind = "event_ignored"
	KindTransition        Kind = "transition"
	KindActionCompleted   Kind = "action_completed"
	KindDispatchCompleted Kind = "dispatch_completed"
)

// TraceEntry records a single logger hook invocation.
type TraceEntry struct {
	Kind       Kind
	Timestamp  time.Time
	InstanceID string
	State      string // Current state; target state for transitions
	From       string // Source state, transitions only
	Event      string
	Phase      machine.Phase // Action entries only
	Duration   time.Duration
	Err        error
}

// Recorder implements machine.Logger by appending every hook to an
// in-memory trace. An optional Next logger receives the hooks unchanged,
// so recording can be layered over real log output.
type Recorder struct {
	Next machine.Logger

	mu    sync.Mutex
	trace []TraceEntry
}

// NewRecorder creates a recorder that forwards to next. A nil next discards.
func NewRecorder(next machine.Logger) *Recorder {
	if next == nil {
		next = machine.NopLogger{}
	}

	return &Recorder{Next: next}
}

// Trace returns a copy of the recorded entries.
func (r *Recorder) Trace() []TraceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]TraceEntry, len(r.trace))
	copy(out, r.trace)

	return out
}

// Reset clears the recorded trace.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trace = nil
}

func (r *Recorder) record(entry TraceEntry) {
	entry.Timestamp = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.trace = append(r.trace, entry)
}

func (r *Recorder) DispatchStarted(ctx context.Context, instanceID, state string, ev machine.Event) {
	r.record(TraceEntry{Kind: KindDispatchStarted, InstanceID: instanceID, State: state, Event: ev.Type})
	r.Next.DispatchStarted(ctx, instanceID, state, ev)
}

func (r *Recorder) EventIgnored(ctx context.Context, instanceID, state string, ev machine.Event) {
	r.record(TraceEntry{Kind: KindEventIgnored, InstanceID: instanceID, State: state, Event: ev.Type})
	r.Next.EventIgnored(ctx, instanceID, state, ev)
}

func (r *Recorder) TransitionExecuted(ctx context.Context, instanceID, from, to string, ev machine.Event) {
	r.record(TraceEntry{Kind: KindTransition, InstanceID: instanceID, From: from, State: to, Event: ev.Type})
	r.Next.TransitionExecuted(ctx, instanceID, from, to, ev)
}

func (r *Recorder) ActionCompleted(
	ctx context.Context,
	instanceID string,
	phase machine.Phase,
	state string,
	duration time.Duration,
	err error,
) {
	r.record(TraceEntry{
		Kind:       KindActionCompleted,
		InstanceID: instanceID,
		State:      state,
		Phase:      phase,
		Duration:   duration,
		Err:        err,
	})
	r.Next.ActionCompleted(ctx, instanceID, phase, state, duration, err)
}

func (r *Recorder) DispatchCompleted(
	ctx context.Context,
	instanceID, state string,
	ev machine.Event,
	duration time.Duration,
	err error,
) {
	r.record(TraceEntry{
		Kind:       KindDispatchCompleted,
		InstanceID: instanceID,
		State:      state,
		Event:      ev.Type,
		Duration:   duration,
		Err:        err,
	})
	r.Next.DispatchCompleted(ctx, instanceID, state, ev, duration, err)
}
