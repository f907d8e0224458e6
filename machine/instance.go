package machine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowstate-dev/flowstate/clone"
	"github.com/flowstate-dev/flowstate/future"
)

// Instance is one live execution of a Definition: the current state name plus
// an owned, isolated context. Dispatches to one instance are strictly
// serialized; dispatches to different instances are fully independent.
//
// Instances need no explicit teardown. The dispatch consumer goroutine is
// spawned on demand and exits as soon as the backlog drains, so an abandoned
// instance is reclaimed by ordinary garbage collection.
type Instance struct {
	id     string
	def    *Definition
	logger Logger

	// baseCtx is the parent of every dispatch's context; it carries the
	// caller's trace and log scope into guards and actions.
	baseCtx context.Context //nolint:containedctx // Send has no ctx parameter by contract

	context *Context

	// Serializer state: a backlog of pending dispatches and a flag marking
	// whether a consumer goroutine is draining it. At most one consumer
	// exists at a time, which is what makes pipeline runs per instance
	// mutually exclusive.
	queueMu  sync.Mutex
	backlog  []pendingDispatch
	draining bool

	stateMu sync.RWMutex
	current *StateDef
}

type pendingDispatch struct {
	event   Event
	promise *future.Promise[any]
}

// InstanceOption customizes instance construction.
type InstanceOption func(*Instance)

// WithLogger replaces the default slog-backed logger.
func WithLogger(logger Logger) InstanceOption {
	return func(i *Instance) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithBaseContext sets the context every dispatch derives from, letting
// callers thread trace context and deadlines into action bodies. The engine
// itself never cancels an admitted dispatch.
func WithBaseContext(ctx context.Context) InstanceOption {
	return func(i *Instance) {
		if ctx != nil {
			i.baseCtx = ctx
		}
	}
}

// Start creates an instance of this definition. The seed is deep-cloned so
// the instance's context shares no structure with the seed or with any other
// instance; a nil seed falls back to the definition's default context (or an
// empty one). The initial state's entry actions run with the synthetic
// no-event marker before Start returns; their failure is Start's error.
func (d *Definition) Start(seed map[string]any, opts ...InstanceOption) (*Instance, error) {
	var data map[string]any
	if seed == nil {
		data = d.defaultContext()
	} else {
		data = clone.Map(seed)
	}

	inst := &Instance{
		id:      uuid.NewString(),
		def:     d,
		logger:  NewSlogLogger(nil),
		baseCtx: context.Background(),
		context: newContext(data),
		current: d.initial,
	}

	for _, opt := range opts {
		opt(inst)
	}

	instancesStarted.WithLabelValues(d.id).Inc()

	_, err := inst.runActions(inst.baseCtx, d.initial.entry, PhaseEntry, d.initial.name, Event{})
	if err != nil {
		return nil, err
	}

	return inst, nil
}

// ID returns the instance's unique identifier.
func (i *Instance) ID() string {
	return i.id
}

// Definition returns the shared, read-only definition.
func (i *Instance) Definition() *Definition {
	return i.def
}

// State returns the current state name. Between dispatches this is stable;
// during a dispatch it reflects the pipeline's state update step.
func (i *Instance) State() string {
	return i.currentState().name
}

// Context returns the instance's owned context. Reading and mutating it
// between dispatches is supported; doing so during an in-flight dispatch
// races with that dispatch's own mutations.
func (i *Instance) Context() *Context {
	return i.context
}

func (i *Instance) currentState() *StateDef {
	i.stateMu.RLock()
	defer i.stateMu.RUnlock()

	return i.current
}

func (i *Instance) setCurrent(s *StateDef) {
	i.stateMu.Lock()
	defer i.stateMu.Unlock()

	i.current = s
}

// Send dispatches an event to this instance and returns a future for the
// dispatch result: the last transition action's value, or nil when the event
// is ignored. At most one payload map is honored.
//
// Dispatches are strictly FIFO per instance: if one is in flight, this one
// queues behind it and begins only after the prior dispatch fully settles.
// A failed dispatch rejects only its own future; the queue keeps going.
func (i *Instance) Send(eventType string, payload ...map[string]any) *future.Future[any] {
	ev := Event{Type: eventType}
	if len(payload) > 0 {
		ev.Payload = payload[0]
	}

	return i.SendEvent(ev)
}

// SendEvent dispatches an already-normalized event. See Send.
func (i *Instance) SendEvent(ev Event) *future.Future[any] {
	fut, promise := future.New[any]()

	i.queueMu.Lock()
	i.backlog = append(i.backlog, pendingDispatch{event: ev, promise: promise})
	backlogDepth.WithLabelValues(i.def.id, hashInstanceID(i.id)).Set(float64(len(i.backlog)))

	spawn := !i.draining
	if spawn {
		i.draining = true
	}
	i.queueMu.Unlock()

	// One pending-dispatch slot plus a backlog: the consumer goroutine only
	// exists while there is work, so idle instances hold no goroutine.
	if spawn {
		go i.drain()
	}

	return fut
}

// drain is the single consumer of the dispatch queue. Promises settle in
// dequeue order, which is enqueue order, so concurrently issued Send calls
// observe FIFO settlement.
func (i *Instance) drain() {
	for {
		i.queueMu.Lock()

		if len(i.backlog) == 0 {
			i.draining = false
			i.queueMu.Unlock()

			return
		}

		next := i.backlog[0]
		i.backlog = i.backlog[1:]
		backlogDepth.WithLabelValues(i.def.id, hashInstanceID(i.id)).Set(float64(len(i.backlog)))
		i.queueMu.Unlock()

		result, err := i.dispatch(next.event)
		next.promise.Complete(result, err)
	}
}

// dispatch runs one end-to-end resolution and execution for an event.
func (i *Instance) dispatch(ev Event) (any, error) {
	state := i.currentState()

	ctx, span := startDispatchSpan(i.baseCtx, i.def.id, i.id, state.name, ev)
	start := time.Now()

	i.logger.DispatchStarted(ctx, i.id, state.name, ev)

	result, matched, err := i.dispatchInner(ctx, state, ev)

	elapsed := time.Since(start)
	outcome := outcomeOf(matched, err)

	endDispatchSpan(span, i.State(), err)
	i.logger.DispatchCompleted(ctx, i.id, i.State(), ev, elapsed, err)
	dispatchesTotal.WithLabelValues(i.def.id, ev.Type, outcome).Inc()
	dispatchDuration.WithLabelValues(i.def.id, outcome).Observe(elapsed.Seconds())

	return result, err
}

func (i *Instance) dispatchInner(ctx context.Context, state *StateDef, ev Event) (any, bool, error) {
	transition, err := resolveTransition(ctx, state, i.context, ev)
	if err != nil {
		return nil, false, err
	}

	if transition == nil {
		// No candidate for this event, or every guard conjunction failed:
		// the event is a no-op, not an error.
		i.logger.EventIgnored(ctx, i.id, state.name, ev)

		return nil, false, nil
	}

	result, err := i.runPipeline(ctx, transition, ev)

	return result, true, err
}

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomeIgnored = "ignored"
)

func outcomeOf(matched bool, err error) string {
	switch {
	case err != nil:
		return outcomeError
	case !matched:
		return outcomeIgnored
	default:
		return outcomeSuccess
	}
}
