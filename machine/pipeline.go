package machine

import (
	"context"
	"time"
)

// runPipeline executes one matched transition: source exit actions, the
// transition's own actions, the state update, then target entry actions.
// Every action list runs in declared order, sequentially, against the same
// context, which actions mutate in place. A blocking action simply delays the
// next step; the ordering holds across suspension points.
//
// Self-transitions are re-entrant: when target equals source, the state's
// exit and entry actions still run.
//
// The returned value is the last transition action's result. An action error
// aborts the remaining steps; mutations made before the failure are retained
// and the state update only happens once the transition actions all succeed.
func (i *Instance) runPipeline(ctx context.Context, tr *TransitionDef, ev Event) (any, error) {
	source := tr.source

	_, err := i.runActions(ctx, source.exit, PhaseExit, source.name, ev)
	if err != nil {
		return nil, err
	}

	result, err := i.runActions(ctx, tr.actions, PhaseTransition, source.name, ev)
	if err != nil {
		return nil, err
	}

	i.setCurrent(tr.target)
	i.logger.TransitionExecuted(ctx, i.id, source.name, tr.target.name, ev)
	transitionsTotal.WithLabelValues(i.def.id, source.name, tr.target.name, ev.Type).Inc()

	_, err = i.runActions(ctx, tr.target.entry, PhaseEntry, tr.target.name, ev)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// runActions invokes one ordered action list. Only the last action's value is
// returned; intermediate values are discarded per the dispatch result rules.
func (i *Instance) runActions(
	ctx context.Context,
	actions []Action,
	phase Phase,
	state string,
	ev Event,
) (any, error) {
	var result any

	for _, action := range actions {
		actionCtx, span := startActionSpan(ctx, i.def.id, phase, state)
		start := time.Now()

		value, err := action(actionCtx, i.context, ev)
		elapsed := time.Since(start)

		endActionSpan(span, err)
		i.logger.ActionCompleted(actionCtx, i.id, phase, state, elapsed, err)
		actionDuration.WithLabelValues(i.def.id, string(phase), state).Observe(elapsed.Seconds())

		if err != nil {
			return nil, wrapDispatchError(state, ev, phase, err)
		}

		result = value
	}

	return result, nil
}
