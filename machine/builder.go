package machine

import (
	"fmt"
	"slices"
)

// Builder provides a fluent API for constructing machine definitions.
//
// Authoring mistakes (empty names, nil guard or action bodies) are recorded
// at the offending call and reported from Build, which is the single fallible
// construction point; nothing is deferred to dispatch time.
type Builder struct {
	id          string
	initial     string
	states      map[string]*stateDraft
	stateOrder  []string
	defaultSeed map[string]any
	err         error
}

type stateDraft struct {
	name        string
	transitions map[string][]*transitionDraft
	eventOrder  []string
	entry       []Action
	exit        []Action
}

type transitionDraft struct {
	event   string
	target  string
	guards  []Guard
	actions []Action
}

// New creates a builder for a machine with the given id.
func New(id string) *Builder {
	b := &Builder{
		states: make(map[string]*stateDraft),
	}

	if id == "" {
		b.fail(ErrMachineIDRequired)
	}

	b.id = id

	return b
}

// fail records the first authoring error; later errors are dropped so Build
// reports the root cause.
func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// State declares a state (or returns the existing declaration) and a builder
// scoped to it.
func (b *Builder) State(name string) *StateBuilder {
	if name == "" {
		b.fail(ErrStateNameRequired)

		return &StateBuilder{b: b, draft: &stateDraft{transitions: make(map[string][]*transitionDraft)}}
	}

	draft, ok := b.states[name]
	if !ok {
		draft = &stateDraft{
			name:        name,
			transitions: make(map[string][]*transitionDraft),
		}
		b.states[name] = draft
		b.stateOrder = append(b.stateOrder, name)
	}

	return &StateBuilder{b: b, draft: draft}
}

// Initial declares the initial state by name.
func (b *Builder) Initial(name string) *Builder {
	b.initial = name

	return b
}

// Context declares a default context seed used by Start when the caller
// supplies none. The seed is deep-cloned per instance.
func (b *Builder) Context(seed map[string]any) *Builder {
	b.defaultSeed = seed

	return b
}

// Build validates the accumulated declarations and produces an immutable
// Definition. All referential errors (unknown initial state, unknown
// transition targets) fail here, before any instance exists.
func (b *Builder) Build() (*Definition, error) {
	if b.err != nil {
		return nil, b.err
	}

	if len(b.states) == 0 {
		return nil, ErrStateRequired
	}

	if b.initial == "" {
		return nil, ErrInitialStateRequired
	}

	if _, ok := b.states[b.initial]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInitialStateNotFound, b.initial)
	}

	def := &Definition{
		id:          b.id,
		states:      make(map[string]*StateDef, len(b.states)),
		stateOrder:  slices.Clone(b.stateOrder),
		defaultSeed: b.defaultSeed,
	}

	// First pass materializes states so transition targets can be linked.
	for name, draft := range b.states {
		def.states[name] = &StateDef{
			name:        name,
			transitions: make(map[string][]*TransitionDef, len(draft.transitions)),
			eventOrder:  slices.Clone(draft.eventOrder),
			entry:       slices.Clone(draft.entry),
			exit:        slices.Clone(draft.exit),
		}
	}

	for name, draft := range b.states {
		state := def.states[name]

		for _, event := range draft.eventOrder {
			for _, td := range draft.transitions[event] {
				target, ok := def.states[td.target]
				if !ok {
					return nil, fmt.Errorf("%w: %s -> %s on %q",
						ErrTargetStateNotFound, name, td.target, event)
				}

				state.transitions[event] = append(state.transitions[event], &TransitionDef{
					source:  state,
					event:   event,
					target:  target,
					guards:  slices.Clone(td.guards),
					actions: slices.Clone(td.actions),
				})
			}
		}
	}

	def.initial = def.states[b.initial]

	return def, nil
}

// StateBuilder configures a single state.
type StateBuilder struct {
	b     *Builder
	draft *stateDraft
}

// On declares a transition from this state to target, triggered by event.
// Declaring the same event again appends another candidate; candidates are
// tried in declaration order and the first whose guards all pass wins.
func (sb *StateBuilder) On(event, target string) *TransitionBuilder {
	td := &transitionDraft{event: event, target: target}

	switch {
	case event == "":
		sb.b.fail(ErrEventNameRequired)
	case target == "":
		sb.b.fail(ErrStateNameRequired)
	default:
		if _, ok := sb.draft.transitions[event]; !ok {
			sb.draft.eventOrder = append(sb.draft.eventOrder, event)
		}

		sb.draft.transitions[event] = append(sb.draft.transitions[event], td)
	}

	return &TransitionBuilder{sb: sb, draft: td}
}

// Enter appends an entry action to this state.
func (sb *StateBuilder) Enter(action Action) *StateBuilder {
	if action == nil {
		sb.b.fail(fmt.Errorf("%w: entry action of state %s", ErrNilAction, sb.draft.name))

		return sb
	}

	sb.draft.entry = append(sb.draft.entry, action)

	return sb
}

// Exit appends an exit action to this state.
func (sb *StateBuilder) Exit(action Action) *StateBuilder {
	if action == nil {
		sb.b.fail(fmt.Errorf("%w: exit action of state %s", ErrNilAction, sb.draft.name))

		return sb
	}

	sb.draft.exit = append(sb.draft.exit, action)

	return sb
}

// TransitionBuilder configures a single transition candidate.
type TransitionBuilder struct {
	sb    *StateBuilder
	draft *transitionDraft
}

// If appends a guard to this transition's conjunction. Guards are evaluated
// left to right and short-circuit on the first false result.
func (tb *TransitionBuilder) If(guard Guard) *TransitionBuilder {
	if guard == nil {
		tb.sb.b.fail(fmt.Errorf("%w: transition %s -> %s on %q",
			ErrNilGuard, tb.sb.draft.name, tb.draft.target, tb.draft.event))

		return tb
	}

	tb.draft.guards = append(tb.draft.guards, guard)

	return tb
}

// Do appends an action to this transition. The last action's return value
// becomes the dispatch result surfaced to the Send caller.
func (tb *TransitionBuilder) Do(action Action) *TransitionBuilder {
	if action == nil {
		tb.sb.b.fail(fmt.Errorf("%w: transition %s -> %s on %q",
			ErrNilAction, tb.sb.draft.name, tb.draft.target, tb.draft.event))

		return tb
	}

	tb.draft.actions = append(tb.draft.actions, action)

	return tb
}

// On declares a sibling transition on the same state, allowing chained
// declarations without re-fetching the state builder.
func (tb *TransitionBuilder) On(event, target string) *TransitionBuilder {
	return tb.sb.On(event, target)
}
