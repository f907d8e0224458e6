package machine

import "context"

// Event is the transient value delivered to guards and actions for the
// duration of one dispatch. The zero Event is the synthetic "no event" marker
// passed to entry actions of the initial state when an instance starts.
type Event struct {
	Type    string
	Payload map[string]any
}

// IsNone reports whether this is the synthetic no-event marker.
func (e Event) IsNone() bool {
	return e.Type == ""
}

// Get retrieves a payload field. Missing fields return (nil, false).
func (e Event) Get(key string) (any, bool) {
	val, ok := e.Payload[key]

	return val, ok
}

// Guard is a side-effect-free predicate gating transition eligibility.
// Guards are evaluated synchronously and must not block; a guard error aborts
// the dispatch.
type Guard func(ctx context.Context, mc *Context, ev Event) (bool, error)

// Action is a unit of work run during exit, transition, or entry processing.
// Actions mutate the instance context in place and may block; the pipeline
// waits for each action to return before running the next. The return value
// is ignored except for the last action of a matched transition, whose value
// becomes the dispatch result.
type Action func(ctx context.Context, mc *Context, ev Event) (any, error)
