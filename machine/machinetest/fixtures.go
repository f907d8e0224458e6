package machinetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowstate-dev/flowstate/machine"
)

// ToggleDefinition builds a minimal two-state machine: idle <-> running on
// START and STOP.
func ToggleDefinition(t *testing.T) *machine.Definition {
	t.Helper()

	b := machine.New("toggle")
	b.State("idle").On("START", "running")
	b.State("running").On("STOP", "idle")
	b.Initial("idle")

	def, err := b.Build()
	require.NoError(t, err)

	return def
}

// CounterDefinition builds a single-state machine that increments the
// "count" context key on every INC, surfacing the new count as the dispatch
// result.
func CounterDefinition(t *testing.T) *machine.Definition {
	t.Helper()

	b := machine.New("counter")
	b.State("counting").On("INC", "counting").
		Do(func(_ context.Context, mc *machine.Context, _ machine.Event) (any, error) {
			count, _ := mc.GetInt("count")
			mc.Set("count", count+1)

			return count + 1, nil
		})
	b.Initial("counting")
	b.Context(map[string]any{"count": 0})

	def, err := b.Build()
	require.NoError(t, err)

	return def
}

// GuardedDefinition builds an access machine: idle responds to ACCESS by
// moving to allowed when context user.role is "admin", otherwise to denied.
// RESET returns to idle from either outcome.
func GuardedDefinition(t *testing.T) *machine.Definition {
	t.Helper()

	isAdmin := func(_ context.Context, mc *machine.Context, _ machine.Event) (bool, error) {
		user, _ := mc.GetMap("user")

		return user["role"] == "admin", nil
	}

	b := machine.New("access")
	b.State("idle").
		On("ACCESS", "allowed").If(isAdmin).
		On("ACCESS", "denied")
	b.State("allowed").On("RESET", "idle")
	b.State("denied").On("RESET", "idle")
	b.Initial("idle")

	def, err := b.Build()
	require.NoError(t, err)

	return def
}
