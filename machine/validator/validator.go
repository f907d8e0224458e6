// Package validator lints machine configs beyond the structural checks
// Config.Validate performs: graph-level issues like unreachable states,
// dead ends, and shadowed transition candidates.
package validator

import (
	"fmt"
	"strings"

	"github.com/flowstate-dev/flowstate/machine"
)

// Result contains the outcome of linting a machine config.
type Result struct {
	Valid    bool
	Errors   []Issue
	Warnings []Issue
}

// Issue describes one problem found by a rule.
type Issue struct {
	Code    string // Stable code like "UNREACHABLE_STATE"
	Message string
	State   string // State name if applicable, "" otherwise
	Event   string // Event name if applicable, "" otherwise
}

// Validate lints a config with the default rule set.
func Validate(config *machine.Config) Result {
	return ValidateWithRules(config, DefaultRules())
}

// ValidateStrict lints with the default rules, promoting warnings to errors.
func ValidateStrict(config *machine.Config) Result {
	result := Validate(config)

	result.Errors = append(result.Errors, result.Warnings...)
	result.Warnings = nil
	result.Valid = len(result.Errors) == 0

	return result
}

// ValidateFile loads a YAML config from a file and lints it. A config that
// fails to load reports a single CONFIG_LOAD_FAILED error alongside the
// load error itself.
func ValidateFile(path string) (Result, error) {
	config, err := machine.LoadConfig(path)
	if err != nil {
		return Result{
			Valid: false,
			Errors: []Issue{{
				Code:    "CONFIG_LOAD_FAILED",
				Message: fmt.Sprintf("failed to load config: %v", err),
			}},
		}, err
	}

	return Validate(config), nil
}

// ValidateWithRules lints a config with a custom rule set.
func ValidateWithRules(config *machine.Config, rules []Rule) Result {
	result := Result{Valid: true}

	for _, rule := range rules {
		issues := rule.Check(config)

		if rule.Severity() == SeverityError {
			result.Errors = append(result.Errors, issues...)
		} else {
			result.Warnings = append(result.Warnings, issues...)
		}
	}

	result.Valid = len(result.Errors) == 0

	return result
}

// HasErrors reports whether the result contains any errors.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings reports whether the result contains any warnings.
func (r Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String renders a human-readable summary.
func (r Result) String() string {
	if r.Valid && len(r.Warnings) == 0 {
		return "configuration is valid"
	}

	var sb strings.Builder

	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "%d error(s):\n", len(r.Errors))

		for _, issue := range r.Errors {
			writeIssue(&sb, issue)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "%d warning(s):\n", len(r.Warnings))

		for _, issue := range r.Warnings {
			writeIssue(&sb, issue)
		}
	}

	return sb.String()
}

func writeIssue(sb *strings.Builder, issue Issue) {
	fmt.Fprintf(sb, "  [%s] %s", issue.Code, issue.Message)

	if issue.State != "" {
		fmt.Fprintf(sb, " (state: %s)", issue.State)
	}

	sb.WriteString("\n")
}
