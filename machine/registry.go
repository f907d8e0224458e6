package machine

import (
	"fmt"
	"sort"
)

// Registry binds guard and action names used by declarative configs to Go
// functions. Configs reference behavior by name; the registry resolves those
// names when FromConfig builds the definition.
type Registry struct {
	guards  map[string]Guard
	actions map[string]Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		guards:  make(map[string]Guard),
		actions: make(map[string]Action),
	}
}

// RegisterGuard binds a guard name. Empty names, nil guards, and duplicate
// registrations fail immediately at this call.
func (r *Registry) RegisterGuard(name string, guard Guard) error {
	if name == "" {
		return ErrGuardNameRequired
	}

	if guard == nil {
		return fmt.Errorf("%w: guard %q", ErrNilGuard, name)
	}

	if _, ok := r.guards[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateGuardName, name)
	}

	r.guards[name] = guard

	return nil
}

// RegisterAction binds an action name. Empty names, nil actions, and
// duplicate registrations fail immediately at this call.
func (r *Registry) RegisterAction(name string, action Action) error {
	if name == "" {
		return ErrActionNameRequired
	}

	if action == nil {
		return fmt.Errorf("%w: action %q", ErrNilAction, name)
	}

	if _, ok := r.actions[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateActionName, name)
	}

	r.actions[name] = action

	return nil
}

// GuardNames returns the registered guard names, sorted.
func (r *Registry) GuardNames() []string {
	return sortedKeys(r.guards)
}

// ActionNames returns the registered action names, sorted.
func (r *Registry) ActionNames() []string {
	return sortedKeys(r.actions)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Guard looks up a registered guard by name.
func (r *Registry) Guard(name string) (Guard, bool) {
	g, ok := r.guards[name]

	return g, ok
}

// Action looks up a registered action by name.
func (r *Registry) Action(name string) (Action, bool) {
	a, ok := r.actions[name]

	return a, ok
}
