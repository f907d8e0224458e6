// Package machinetest provides test helpers for machine-based code: a
// trace-recording logger, a wrapped instance with require-style assertions,
// and ready-made definition fixtures.
package machinetest

import (
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"github.com/flowstate-dev/flowstate/machine"
)

// TestInstance wraps a started Instance with its trace recorder and
// assertion helpers. Assertions fail the test via require.
type TestInstance struct {
	*machine.Instance

	t        *testing.T
	recorder *Recorder
}

// Start starts an instance of def with the given seed, wiring a recorder
// layered over test-scoped slog output.
func Start(t *testing.T, def *machine.Definition, seed map[string]any) *TestInstance {
	t.Helper()

	recorder := NewRecorder(machine.NewSlogLogger(slogt.New(t)))

	inst, err := def.Start(seed, machine.WithLogger(recorder))
	require.NoError(t, err, "failed to start instance")

	return &TestInstance{Instance: inst, t: t, recorder: recorder}
}

// SendSync dispatches an event and waits for it to settle, failing the test
// on a rejected dispatch.
func (ti *TestInstance) SendSync(eventType string, payload ...map[string]any) any {
	ti.t.Helper()

	result, err := ti.Send(eventType, payload...).Await()
	require.NoError(ti.t, err, "dispatch of %q failed", eventType)

	return result
}

// SendSyncErr dispatches an event, waits, and returns the dispatch error for
// callers asserting on failures.
func (ti *TestInstance) SendSyncErr(eventType string, payload ...map[string]any) (any, error) {
	ti.t.Helper()

	return ti.Send(eventType, payload...).Await()
}

// Trace returns the recorded trace so far.
func (ti *TestInstance) Trace() []TraceEntry {
	return ti.recorder.Trace()
}

// AssertState checks the instance's current state.
func (ti *TestInstance) AssertState(expected string) {
	ti.t.Helper()

	require.Equal(ti.t, expected, ti.State(), "instance should be in state %q", expected)
}

// AssertTransitionTaken checks that a from -> to transition on the given
// event appears in the trace.
func (ti *TestInstance) AssertTransitionTaken(from, to, event string) {
	ti.t.Helper()

	for _, entry := range ti.recorder.Trace() {
		if entry.Kind == KindTransition && entry.From == from && entry.State == to && entry.Event == event {
			return
		}
	}

	ti.t.Fatalf("transition %s -> %s on %q was not taken", from, to, event)
}

// AssertEventIgnored checks that a dispatch of the given event matched no
// transition.
func (ti *TestInstance) AssertEventIgnored(event string) {
	ti.t.Helper()

	for _, entry := range ti.recorder.Trace() {
		if entry.Kind == KindEventIgnored && entry.Event == event {
			return
		}
	}

	ti.t.Fatalf("event %q was not ignored", event)
}

// AssertContextValue checks a top-level context value.
func (ti *TestInstance) AssertContextValue(key string, expected any) {
	ti.t.Helper()

	actual, ok := ti.Context().Get(key)
	require.True(ti.t, ok, "context should have key %q", key)
	require.Equal(ti.t, expected, actual, "context[%s] should equal %v", key, expected)
}

// StatesVisited returns the distinct target states in transition order,
// starting with the initial state.
func (ti *TestInstance) StatesVisited() []string {
	visited := []string{ti.Definition().Initial()}

	for _, entry := range ti.recorder.Trace() {
		if entry.Kind == KindTransition {
			visited = append(visited, entry.State)
		}
	}

	return visited
}
