package machine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowstate-dev/flowstate/future"
	"github.com/flowstate-dev/flowstate/machine"
)

var errActionFailed = errors.New("action failed")

func TestStartStop_Scenario(t *testing.T) {
	t.Parallel()

	def := buildToggle(t)

	inst, err := def.Start(nil)
	require.NoError(t, err)
	assert.Equal(t, "idle", inst.State())

	_, err = inst.Send("START").Await()
	require.NoError(t, err)
	assert.Equal(t, "running", inst.State())

	_, err = inst.Send("STOP").Await()
	require.NoError(t, err)
	assert.Equal(t, "idle", inst.State())
}

func TestGuardedAccess_Scenario(t *testing.T) {
	t.Parallel()

	isAdmin := func(_ context.Context, mc *machine.Context, _ machine.Event) (bool, error) {
		user, _ := mc.GetMap("user")

		return user["role"] == "admin", nil
	}
	notAdmin := func(ctx context.Context, mc *machine.Context, ev machine.Event) (bool, error) {
		admin, err := isAdmin(ctx, mc, ev)

		return !admin, err
	}

	b := machine.New("access")
	b.State("idle").
		On("ACCESS", "allowed").If(isAdmin).
		On("ACCESS", "denied").If(notAdmin)
	b.State("allowed").On("RESET", "idle")
	b.State("denied").On("RESET", "idle")
	b.Initial("idle")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(map[string]any{"user": map[string]any{"role": "user"}})
	require.NoError(t, err)

	_, err = inst.Send("ACCESS").Await()
	require.NoError(t, err)
	assert.Equal(t, "denied", inst.State())

	_, err = inst.Send("RESET").Await()
	require.NoError(t, err)

	// Context is mutable from outside the engine between dispatches.
	user, ok := inst.Context().GetMap("user")
	require.True(t, ok)
	user["role"] = "admin"

	_, err = inst.Send("ACCESS").Await()
	require.NoError(t, err)
	assert.Equal(t, "allowed", inst.State())
}

func TestContextIsolation_TwoInstances(t *testing.T) {
	t.Parallel()

	increment := func(_ context.Context, mc *machine.Context, _ machine.Event) (any, error) {
		count, _ := mc.GetInt("count")
		mc.Set("count", count+1)

		return count + 1, nil
	}

	b := machine.New("counter")
	b.State("counting").On("INC", "counting").Do(increment)
	b.Initial("counting")

	def, err := b.Build()
	require.NoError(t, err)

	seed := map[string]any{"count": 0}

	first, err := def.Start(seed)
	require.NoError(t, err)

	second, err := def.Start(seed)
	require.NoError(t, err)

	_, err = first.Send("INC").Await()
	require.NoError(t, err)

	firstCount, _ := first.Context().GetInt("count")
	secondCount, _ := second.Context().GetInt("count")
	assert.Equal(t, 1, firstCount)
	assert.Equal(t, 0, secondCount, "instances must not share context")

	// The caller's seed is equally untouched.
	assert.Equal(t, 0, seed["count"])
}

func TestSeedIsolation_NestedStructure(t *testing.T) {
	t.Parallel()

	def := buildToggle(t)

	seed := map[string]any{"nested": map[string]any{"k": "v"}}

	inst, err := def.Start(seed)
	require.NoError(t, err)

	// Mutating the seed after Start must not reach the instance.
	seed["nested"].(map[string]any)["k"] = "mutated"

	nested, ok := inst.Context().GetMap("nested")
	require.True(t, ok)
	assert.Equal(t, "v", nested["k"])
}

func TestLifecycleOrdering(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		trace []string
	)

	record := func(step string) machine.Action {
		return func(_ context.Context, _ *machine.Context, _ machine.Event) (any, error) {
			mu.Lock()
			defer mu.Unlock()

			trace = append(trace, step)

			return step, nil
		}
	}

	b := machine.New("ordered")
	b.State("a").
		Exit(record("exit-a-1")).
		Exit(record("exit-a-2")).
		On("GO", "b").Do(record("trans-1")).Do(record("trans-2"))
	b.State("b").
		Enter(record("enter-b-1")).
		Enter(record("enter-b-2"))
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(nil)
	require.NoError(t, err)

	result, err := inst.Send("GO").Await()
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"exit-a-1", "exit-a-2", "trans-1", "trans-2", "enter-b-1", "enter-b-2"}, trace)

	// The dispatch result is the last transition action's value, not an
	// entry action's.
	assert.Equal(t, "trans-2", result)
}

func TestInitialEntryActions_RunBeforeStartReturns(t *testing.T) {
	t.Parallel()

	entered := false

	b := machine.New("m")
	b.State("a").Enter(func(_ context.Context, mc *machine.Context, ev machine.Event) (any, error) {
		entered = true

		// Entry at start receives the synthetic no-event marker.
		assert.True(t, ev.IsNone())
		mc.Set("entered", true)

		return nil, nil
	})
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(nil)
	require.NoError(t, err)
	assert.True(t, entered)

	val, ok := inst.Context().GetBool("entered")
	assert.True(t, ok)
	assert.True(t, val)
}

func TestStart_EntryActionFailure(t *testing.T) {
	t.Parallel()

	b := machine.New("m")
	b.State("a").Enter(func(_ context.Context, _ *machine.Context, _ machine.Event) (any, error) {
		return nil, errActionFailed
	})
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	_, err = def.Start(nil)
	require.ErrorIs(t, err, errActionFailed)

	var dispatchErr *machine.DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, machine.PhaseEntry, dispatchErr.Phase)
}

func TestNoMatch_IsNoOp(t *testing.T) {
	t.Parallel()

	def := buildToggle(t)

	inst, err := def.Start(map[string]any{"k": "v"})
	require.NoError(t, err)

	before := inst.Context().Snapshot()

	// No transition registered for this event in state idle.
	result, err := inst.Send("UNKNOWN").Await()
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "idle", inst.State())
	assert.Equal(t, before, inst.Context().Snapshot())
}

func TestAllGuardsFail_IsNoOp(t *testing.T) {
	t.Parallel()

	never := func(_ context.Context, _ *machine.Context, _ machine.Event) (bool, error) {
		return false, nil
	}

	exited := false

	b := machine.New("m")
	b.State("a").
		Exit(func(_ context.Context, _ *machine.Context, _ machine.Event) (any, error) {
			exited = true

			return nil, nil
		}).
		On("GO", "b").If(never)
	b.State("b")
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(nil)
	require.NoError(t, err)

	result, err := inst.Send("GO").Await()
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "a", inst.State())
	assert.False(t, exited, "exit actions must not run when no transition matches")
}

func TestFirstMatchWins_LaterGuardsNotEvaluated(t *testing.T) {
	t.Parallel()

	evaluated := []string{}

	guard := func(name string, pass bool) machine.Guard {
		return func(_ context.Context, _ *machine.Context, _ machine.Event) (bool, error) {
			evaluated = append(evaluated, name)

			return pass, nil
		}
	}

	b := machine.New("m")
	b.State("a").
		On("GO", "b").If(guard("first", false)).
		On("GO", "c").If(guard("second", true)).
		On("GO", "d").If(guard("third", true))
	b.State("b")
	b.State("c")
	b.State("d")
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(nil)
	require.NoError(t, err)

	_, err = inst.Send("GO").Await()
	require.NoError(t, err)
	assert.Equal(t, "c", inst.State())
	assert.Equal(t, []string{"first", "second"}, evaluated,
		"candidates after the first match must not be evaluated")
}

func TestGuardConjunction_ShortCircuits(t *testing.T) {
	t.Parallel()

	secondRan := false

	b := machine.New("m")
	b.State("a").On("GO", "b").
		If(func(_ context.Context, _ *machine.Context, _ machine.Event) (bool, error) {
			return false, nil
		}).
		If(func(_ context.Context, _ *machine.Context, _ machine.Event) (bool, error) {
			secondRan = true

			return true, nil
		})
	b.State("b")
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(nil)
	require.NoError(t, err)

	_, err = inst.Send("GO").Await()
	require.NoError(t, err)
	assert.Equal(t, "a", inst.State())
	assert.False(t, secondRan, "guard conjunction must short-circuit on first false")
}

func TestGuardError_RejectsDispatch(t *testing.T) {
	t.Parallel()

	b := machine.New("m")
	b.State("a").On("GO", "b").
		If(func(_ context.Context, _ *machine.Context, _ machine.Event) (bool, error) {
			return false, errActionFailed
		})
	b.State("b")
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(nil)
	require.NoError(t, err)

	_, err = inst.Send("GO").Await()
	require.ErrorIs(t, err, errActionFailed)

	var dispatchErr *machine.DispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Equal(t, machine.PhaseGuard, dispatchErr.Phase)
	assert.Equal(t, "a", inst.State())
}

func TestActionError_RetainsPartialMutation(t *testing.T) {
	t.Parallel()

	b := machine.New("m")
	b.State("a").On("GO", "b").
		Do(func(_ context.Context, mc *machine.Context, _ machine.Event) (any, error) {
			mc.Set("step1", true)

			return nil, nil
		}).
		Do(func(_ context.Context, _ *machine.Context, _ machine.Event) (any, error) {
			return nil, errActionFailed
		})
	b.State("b")
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(nil)
	require.NoError(t, err)

	_, err = inst.Send("GO").Await()
	require.ErrorIs(t, err, errActionFailed)

	// Mutations before the failing step persist; the state update never
	// happened because transition actions did not complete.
	step1, _ := inst.Context().GetBool("step1")
	assert.True(t, step1)
	assert.Equal(t, "a", inst.State())
}

func TestFailedDispatch_DoesNotPoisonQueue(t *testing.T) {
	t.Parallel()

	fail := true

	b := machine.New("m")
	b.State("a").On("GO", "b").
		Do(func(_ context.Context, _ *machine.Context, _ machine.Event) (any, error) {
			if fail {
				return nil, errActionFailed
			}

			return "ok", nil
		})
	b.State("b").On("BACK", "a")
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(nil, machine.WithLogger(machine.NewSlogLogger(slogt.New(t))))
	require.NoError(t, err)

	_, err = inst.Send("GO").Await()
	require.ErrorIs(t, err, errActionFailed)

	fail = false

	result, err := inst.Send("GO").Await()
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, "b", inst.State())
}

func TestSelfTransition_IsReentrant(t *testing.T) {
	t.Parallel()

	var trace []string

	record := func(step string) machine.Action {
		return func(_ context.Context, _ *machine.Context, _ machine.Event) (any, error) {
			trace = append(trace, step)

			return nil, nil
		}
	}

	b := machine.New("m")
	b.State("a").
		Enter(record("enter")).
		Exit(record("exit")).
		On("SELF", "a").Do(record("action"))
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(nil)
	require.NoError(t, err)

	// Start runs the initial entry.
	require.Equal(t, []string{"enter"}, trace)

	_, err = inst.Send("SELF").Await()
	require.NoError(t, err)

	assert.Equal(t, []string{"enter", "exit", "action", "enter"}, trace,
		"self-transitions fire exit and entry actions")
}

func TestAsyncAction_SerializesOverlappingSends(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		trace []string
	)

	slow := func(_ context.Context, mc *machine.Context, _ machine.Event) (any, error) {
		mu.Lock()
		trace = append(trace, "slow-start")
		mu.Unlock()

		// A blocking body is the Go rendering of a suspending action.
		time.Sleep(50 * time.Millisecond)

		mc.Set("slow", true)

		mu.Lock()
		trace = append(trace, "slow-end")
		mu.Unlock()

		return nil, nil
	}
	fast := func(_ context.Context, mc *machine.Context, _ machine.Event) (any, error) {
		mu.Lock()
		trace = append(trace, "fast")
		mu.Unlock()

		slow, _ := mc.GetBool("slow")

		return slow, nil
	}

	b := machine.New("m")
	b.State("a").On("SLOW", "b").Do(slow)
	b.State("b").On("FAST", "c").Do(fast)
	b.State("c")
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(nil)
	require.NoError(t, err)

	// Issue the second send immediately; it must not observe or run until
	// the first dispatch fully settles.
	first := inst.Send("SLOW")
	second := inst.Send("FAST")

	_, err = first.Await()
	require.NoError(t, err)

	observed, err := second.Await()
	require.NoError(t, err)
	assert.Equal(t, true, observed, "second dispatch must see the first's mutations")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"slow-start", "slow-end", "fast"}, trace)
}

func TestConcurrentSends_SettleFIFO(t *testing.T) {
	t.Parallel()

	increment := func(_ context.Context, mc *machine.Context, _ machine.Event) (any, error) {
		count, _ := mc.GetInt("count")
		mc.Set("count", count+1)

		return count + 1, nil
	}

	b := machine.New("counter")
	b.State("counting").On("INC", "counting").Do(increment)
	b.Initial("counting")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(map[string]any{"count": 0})
	require.NoError(t, err)

	const sends = 50

	futures := make([]*future.Future[any], sends)
	for i := range sends {
		futures[i] = inst.Send("INC")
	}

	// Each dispatch saw the full effect of all prior ones: the results are
	// exactly 1..N in issue order, which also proves no two pipeline runs
	// overlapped.
	for i, fut := range futures {
		result, err := fut.Await()
		require.NoError(t, err)
		assert.Equal(t, i+1, result)
	}

	final, _ := inst.Context().GetInt("count")
	assert.Equal(t, sends, final)
}

func TestIndependentInstances_Interleave(t *testing.T) {
	t.Parallel()

	b := machine.New("m")
	b.State("a").On("GO", "a").
		Do(func(_ context.Context, mc *machine.Context, _ machine.Event) (any, error) {
			time.Sleep(5 * time.Millisecond)

			n, _ := mc.GetInt("n")
			mc.Set("n", n+1)

			return nil, nil
		})
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	const instances = 8

	var wg sync.WaitGroup

	insts := make([]*machine.Instance, instances)
	for i := range instances {
		inst, err := def.Start(map[string]any{"n": 0})
		require.NoError(t, err)

		insts[i] = inst
	}

	for _, inst := range insts {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 10 {
				_, err := inst.Send("GO").Await()
				assert.NoError(t, err)
			}
		}()
	}

	wg.Wait()

	for _, inst := range insts {
		n, _ := inst.Context().GetInt("n")
		assert.Equal(t, 10, n)
	}
}

func TestEventPayload_ReachesGuardsAndActions(t *testing.T) {
	t.Parallel()

	b := machine.New("m")
	b.State("a").On("SET", "a").
		If(func(_ context.Context, _ *machine.Context, ev machine.Event) (bool, error) {
			_, ok := ev.Get("value")

			return ok, nil
		}).
		Do(func(_ context.Context, mc *machine.Context, ev machine.Event) (any, error) {
			value, _ := ev.Get("value")
			mc.Set("value", value)

			return value, nil
		})
	b.Initial("a")

	def, err := b.Build()
	require.NoError(t, err)

	inst, err := def.Start(nil)
	require.NoError(t, err)

	result, err := inst.Send("SET", map[string]any{"value": 42}).Await()
	require.NoError(t, err)
	assert.Equal(t, 42, result)

	// Without the payload the guard fails and the event is ignored.
	result, err = inst.Send("SET").Await()
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestTransitionWithoutActions_ResolvesNil(t *testing.T) {
	t.Parallel()

	def := buildToggle(t)

	inst, err := def.Start(nil)
	require.NoError(t, err)

	result, err := inst.Send("START").Await()
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "running", inst.State())
}
