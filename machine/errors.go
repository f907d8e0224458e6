package machine

import (
	"errors"
	"fmt"
)

// Definition build errors. These surface from Build, FromConfig, and the
// config loaders, before any instance exists.
var (
	// ErrMachineIDRequired indicates that a machine id is required.
	ErrMachineIDRequired = errors.New("machine id is required")
	// ErrStateNameRequired indicates that a state name is required.
	ErrStateNameRequired = errors.New("state name is required")
	// ErrEventNameRequired indicates that an event name is required.
	ErrEventNameRequired = errors.New("event name is required")
	// ErrStateRequired indicates that at least one state is required.
	ErrStateRequired = errors.New("at least one state is required")
	// ErrInitialStateRequired indicates that an initial state is required.
	ErrInitialStateRequired = errors.New("initial state is required")
	// ErrInitialStateNotFound indicates that the initial state does not exist.
	ErrInitialStateNotFound = errors.New("initial state does not exist")
	// ErrTargetStateNotFound indicates that a transition target does not exist.
	ErrTargetStateNotFound = errors.New("transition target does not exist")
	// ErrNilGuard indicates that a nil guard predicate was supplied.
	ErrNilGuard = errors.New("guard must not be nil")
	// ErrNilAction indicates that a nil action body was supplied.
	ErrNilAction = errors.New("action must not be nil")
)

// Registry and config errors.
var (
	// ErrGuardNameRequired indicates that a guard name is required.
	ErrGuardNameRequired = errors.New("guard name is required")
	// ErrActionNameRequired indicates that an action name is required.
	ErrActionNameRequired = errors.New("action name is required")
	// ErrDuplicateGuardName indicates that a guard name is already registered.
	ErrDuplicateGuardName = errors.New("guard name already registered")
	// ErrDuplicateActionName indicates that an action name is already registered.
	ErrDuplicateActionName = errors.New("action name already registered")
	// ErrUnknownGuardName indicates that a config references an unregistered guard.
	ErrUnknownGuardName = errors.New("unknown guard name")
	// ErrUnknownActionName indicates that a config references an unregistered action.
	ErrUnknownActionName = errors.New("unknown action name")
)

// Phase identifies which step of a dispatch produced an error.
type Phase string

// Dispatch phases, in pipeline order.
const (
	PhaseGuard      Phase = "guard"
	PhaseExit       Phase = "exit"
	PhaseTransition Phase = "transition"
	PhaseEntry      Phase = "entry"
)

// DispatchError wraps a guard or action error with dispatch context. It is
// delivered through the rejected future returned by Send; the instance stays
// usable and later dispatches observe whatever partial mutation occurred
// before the failing step.
type DispatchError struct {
	State string
	Event string
	Phase Phase
	Err   error
}

func (e *DispatchError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("dispatch in state %s: %s phase: %v", e.State, e.Phase, e.Err)
	}

	return fmt.Sprintf("dispatch %q in state %s: %s phase: %v", e.Event, e.State, e.Phase, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// wrapDispatchError wraps an error with dispatch context. A nil error stays nil.
func wrapDispatchError(state string, ev Event, phase Phase, err error) error {
	if err == nil {
		return nil
	}

	return &DispatchError{
		State: state,
		Event: ev.Type,
		Phase: phase,
		Err:   err,
	}
}
