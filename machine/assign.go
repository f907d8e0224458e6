package machine

import "context"

// Assign produces an action that shallow-merges the fields returned by
// updater into the context, replacing existing top-level keys. It is a
// convenience for actions that compute replacement fields rather than
// mutating the context directly. The merged map is also the action's result
// value, so an Assign placed last on a transition surfaces the merged fields
// to the Send caller.
//
// A nil updater panics immediately; the mistake belongs to the call that
// constructs the action, not to dispatch time.
func Assign(updater func(mc *Context, ev Event) map[string]any) Action {
	if updater == nil {
		panic("machine.Assign: updater must not be nil")
	}

	return func(_ context.Context, mc *Context, ev Event) (any, error) {
		fields := updater(mc, ev)
		if fields != nil {
			mc.Merge(fields)
		}

		return fields, nil
	}
}
