package machinetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_RecordsTrace(t *testing.T) {
	t.Parallel()

	ti := Start(t, ToggleDefinition(t), nil)
	ti.AssertState("idle")

	ti.SendSync("START")
	ti.AssertState("running")
	ti.AssertTransitionTaken("idle", "running", "START")

	ti.SendSync("STOP")
	ti.AssertTransitionTaken("running", "idle", "STOP")

	assert.Equal(t, []string{"idle", "running", "idle"}, ti.StatesVisited())
}

func TestSendSync_SurfacesResult(t *testing.T) {
	t.Parallel()

	ti := Start(t, CounterDefinition(t), nil)

	assert.Equal(t, 1, ti.SendSync("INC"))
	assert.Equal(t, 2, ti.SendSync("INC"))
	ti.AssertContextValue("count", 2)
}

func TestAssertEventIgnored(t *testing.T) {
	t.Parallel()

	ti := Start(t, ToggleDefinition(t), nil)

	result := ti.SendSync("UNKNOWN")
	assert.Nil(t, result)
	ti.AssertEventIgnored("UNKNOWN")
	ti.AssertState("idle")
}

func TestGuardedFixture(t *testing.T) {
	t.Parallel()

	ti := Start(t, GuardedDefinition(t), map[string]any{
		"user": map[string]any{"role": "admin"},
	})

	ti.SendSync("ACCESS")
	ti.AssertState("allowed")

	other := Start(t, GuardedDefinition(t), map[string]any{
		"user": map[string]any{"role": "viewer"},
	})

	other.SendSync("ACCESS")
	other.AssertState("denied")
}

func TestRecorder_KindsAndReset(t *testing.T) {
	t.Parallel()

	ti := Start(t, ToggleDefinition(t), nil)
	ti.SendSync("START")

	trace := ti.Trace()
	require.NotEmpty(t, trace)

	kinds := make([]Kind, 0, len(trace))
	for _, entry := range trace {
		kinds = append(kinds, entry.Kind)
	}

	assert.Contains(t, kinds, KindDispatchStarted)
	assert.Contains(t, kinds, KindTransition)
	assert.Contains(t, kinds, KindDispatchCompleted)

	ti.recorder.Reset()
	assert.Empty(t, ti.Trace())
}
