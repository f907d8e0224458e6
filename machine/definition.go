// Package machine provides a state-machine runtime: declarative machine
// definitions, independent running instances with isolated mutable contexts,
// and per-instance serialized event dispatch.
package machine

import (
	"slices"

	"github.com/flowstate-dev/flowstate/clone"
)

// Definition is an immutable description of a state graph: named states, an
// initial state, and per-state transitions keyed by event name. A definition
// is built once and safely shared by any number of instances.
type Definition struct {
	id          string
	states      map[string]*StateDef
	stateOrder  []string
	initial     *StateDef
	defaultSeed map[string]any
}

// StateDef is a named node with entry and exit actions and outgoing
// transitions keyed by event name. Transition candidates for one event keep
// declaration order; the first whose guards all pass wins.
type StateDef struct {
	name        string
	transitions map[string][]*TransitionDef
	eventOrder  []string
	entry       []Action
	exit        []Action
}

// TransitionDef is an event-triggered edge: an ordered guard conjunction, an
// ordered action list, and a target state within the same definition.
type TransitionDef struct {
	source  *StateDef
	event   string
	target  *StateDef
	guards  []Guard
	actions []Action
}

// ID returns the machine's informational identifier.
func (d *Definition) ID() string {
	return d.id
}

// Initial returns the name of the initial state.
func (d *Definition) Initial() string {
	return d.initial.name
}

// StateNames returns the state names in declaration order.
func (d *Definition) StateNames() []string {
	return slices.Clone(d.stateOrder)
}

// State looks up a state descriptor by name.
func (d *Definition) State(name string) (*StateDef, bool) {
	s, ok := d.states[name]

	return s, ok
}

// defaultContext deep-clones the definition's default context seed, or
// returns an empty map when none was declared.
func (d *Definition) defaultContext() map[string]any {
	if d.defaultSeed == nil {
		return make(map[string]any)
	}

	return clone.Map(d.defaultSeed)
}

// Name returns the state's name.
func (s *StateDef) Name() string {
	return s.name
}

// Events returns the event names this state reacts to, in declaration order.
func (s *StateDef) Events() []string {
	return slices.Clone(s.eventOrder)
}

// TransitionsFor returns the ordered transition candidates for an event.
func (s *StateDef) TransitionsFor(event string) []*TransitionDef {
	return s.transitions[event]
}

// Source returns the transition's source state name.
func (t *TransitionDef) Source() string {
	return t.source.name
}

// Target returns the transition's target state name.
func (t *TransitionDef) Target() string {
	return t.target.name
}

// Event returns the event name that triggers this transition.
func (t *TransitionDef) Event() string {
	return t.event
}

// GuardCount returns the number of guards on this transition. A transition
// with zero guards is unconditionally eligible.
func (t *TransitionDef) GuardCount() int {
	return len(t.guards)
}

// ActionCount returns the number of transition actions.
func (t *TransitionDef) ActionCount() int {
	return len(t.actions)
}
