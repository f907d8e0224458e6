package machine

import "context"

// resolveTransition selects the transition for an event from the given state,
// or nil when the event is a no-op for state purposes.
//
// Candidates registered for the event are tried in declaration order; within
// one candidate the guard conjunction is evaluated left to right and
// short-circuits on the first false guard. The first candidate whose guards
// all pass is selected; later candidates are never evaluated. No registered
// candidates, or all candidates failing their guards, both resolve to nil.
// A guard error aborts resolution and fails the dispatch.
func resolveTransition(ctx context.Context, state *StateDef, mc *Context, ev Event) (*TransitionDef, error) {
	for _, candidate := range state.transitions[ev.Type] {
		eligible, err := evalGuards(ctx, candidate, mc, ev)
		if err != nil {
			return nil, wrapDispatchError(state.name, ev, PhaseGuard, err)
		}

		if eligible {
			return candidate, nil
		}
	}

	return nil, nil //nolint:nilnil // nil transition means "event ignored", not an error
}

func evalGuards(ctx context.Context, tr *TransitionDef, mc *Context, ev Event) (bool, error) {
	for _, guard := range tr.guards {
		pass, err := guard(ctx, mc, ev)
		if err != nil {
			return false, err
		}

		if !pass {
			return false, nil
		}
	}

	return true, nil
}
