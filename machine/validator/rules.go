package validator

import (
	"fmt"

	"github.com/flowstate-dev/flowstate/machine"
)

// Severity classifies a rule's findings.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Rule checks a config for one class of issue.
type Rule interface {
	Name() string
	Severity() Severity
	Check(config *machine.Config) []Issue
}

// DefaultRules returns the standard rule set.
func DefaultRules() []Rule {
	return []Rule{
		&unreachableStateRule{},
		&deadEndStateRule{},
		&shadowedTransitionRule{},
		&selfLoopOnlyRule{},
	}
}

// unreachableStateRule finds states no transition path reaches from the
// initial state.
type unreachableStateRule struct{}

func (r *unreachableStateRule) Name() string { return "UnreachableState" }

func (r *unreachableStateRule) Severity() Severity { return SeverityError }

func (r *unreachableStateRule) Check(config *machine.Config) []Issue {
	reachable := map[string]bool{config.Initial: true}

	queue := []string{config.Initial}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, candidates := range config.States[current].On {
			for _, tc := range candidates {
				if !reachable[tc.Target] {
					reachable[tc.Target] = true
					queue = append(queue, tc.Target)
				}
			}
		}
	}

	var issues []Issue

	for _, name := range config.StateNames() {
		if !reachable[name] {
			issues = append(issues, Issue{
				Code:    "UNREACHABLE_STATE",
				Message: fmt.Sprintf("state %q cannot be reached from initial state %q", name, config.Initial),
				State:   name,
			})
		}
	}

	return issues
}

// deadEndStateRule warns about states with no outgoing transitions.
// Terminal states are legitimate, so this is advisory only.
type deadEndStateRule struct{}

func (r *deadEndStateRule) Name() string { return "DeadEndState" }

func (r *deadEndStateRule) Severity() Severity { return SeverityWarning }

func (r *deadEndStateRule) Check(config *machine.Config) []Issue {
	var issues []Issue

	for _, name := range config.StateNames() {
		if len(config.States[name].On) == 0 {
			issues = append(issues, Issue{
				Code:    "DEAD_END_STATE",
				Message: fmt.Sprintf("state %q has no outgoing transitions; instances entering it can never leave", name),
				State:   name,
			})
		}
	}

	return issues
}

// shadowedTransitionRule finds candidates that can never fire because an
// earlier unguarded candidate for the same event always wins.
type shadowedTransitionRule struct{}

func (r *shadowedTransitionRule) Name() string { return "ShadowedTransition" }

func (r *shadowedTransitionRule) Severity() Severity { return SeverityError }

func (r *shadowedTransitionRule) Check(config *machine.Config) []Issue {
	var issues []Issue

	for _, name := range config.StateNames() {
		for event, candidates := range config.States[name].On {
			for i, tc := range candidates {
				if len(tc.Guards) > 0 || i == len(candidates)-1 {
					continue
				}

				issues = append(issues, Issue{
					Code: "SHADOWED_TRANSITION",
					Message: fmt.Sprintf(
						"state %q event %q: candidate %d is unguarded, shadowing %d later candidate(s)",
						name, event, i, len(candidates)-1-i),
					State: name,
					Event: event,
				})
			}
		}
	}

	return issues
}

// CheckRegistryCoverage reports guard and action names referenced by the
// config but absent from the registry (errors, these fail FromConfig), and
// registered names the config never references (warnings). The returned
// issues use the same codes either way, so callers can merge them into a
// Result from ValidateWithRules.
func CheckRegistryCoverage(config *machine.Config, registry *machine.Registry) Result {
	result := Result{Valid: true}

	usedGuards := make(map[string]bool)
	usedActions := make(map[string]bool)

	for _, name := range config.StateNames() {
		state := config.States[name]

		for _, actionName := range state.Entry {
			usedActions[actionName] = true
		}

		for _, actionName := range state.Exit {
			usedActions[actionName] = true
		}

		for event, candidates := range state.On {
			for _, tc := range candidates {
				for _, guardName := range tc.Guards {
					usedGuards[guardName] = true

					if _, ok := registry.Guard(guardName); !ok {
						result.Errors = append(result.Errors, Issue{
							Code:    "UNKNOWN_GUARD",
							Message: fmt.Sprintf("guard %q is not registered", guardName),
							State:   name,
							Event:   event,
						})
					}
				}

				for _, actionName := range tc.Actions {
					usedActions[actionName] = true

					if _, ok := registry.Action(actionName); !ok {
						result.Errors = append(result.Errors, Issue{
							Code:    "UNKNOWN_ACTION",
							Message: fmt.Sprintf("action %q is not registered", actionName),
							State:   name,
							Event:   event,
						})
					}
				}
			}
		}

		for _, actionName := range append(append([]string{}, state.Entry...), state.Exit...) {
			if _, ok := registry.Action(actionName); !ok {
				result.Errors = append(result.Errors, Issue{
					Code:    "UNKNOWN_ACTION",
					Message: fmt.Sprintf("action %q is not registered", actionName),
					State:   name,
				})
			}
		}
	}

	for _, name := range registry.GuardNames() {
		if !usedGuards[name] {
			result.Warnings = append(result.Warnings, Issue{
				Code:    "UNUSED_GUARD",
				Message: fmt.Sprintf("registered guard %q is never referenced by the config", name),
			})
		}
	}

	for _, name := range registry.ActionNames() {
		if !usedActions[name] {
			result.Warnings = append(result.Warnings, Issue{
				Code:    "UNUSED_ACTION",
				Message: fmt.Sprintf("registered action %q is never referenced by the config", name),
			})
		}
	}

	result.Valid = len(result.Errors) == 0

	return result
}

// selfLoopOnlyRule warns about states whose only transitions target
// themselves unguarded; once entered they loop forever on that event.
type selfLoopOnlyRule struct{}

func (r *selfLoopOnlyRule) Name() string { return "SelfLoopOnly" }

func (r *selfLoopOnlyRule) Severity() Severity { return SeverityWarning }

func (r *selfLoopOnlyRule) Check(config *machine.Config) []Issue {
	var issues []Issue

	for _, name := range config.StateNames() {
		state := config.States[name]
		if len(state.On) == 0 {
			continue
		}

		escapes := false

		for _, candidates := range state.On {
			for _, tc := range candidates {
				if tc.Target != name {
					escapes = true
				}
			}
		}

		if !escapes {
			issues = append(issues, Issue{
				Code:    "SELF_LOOP_ONLY",
				Message: fmt.Sprintf("state %q only transitions to itself", name),
				State:   name,
			})
		}
	}

	return issues
}
