// Package visualizer generates Mermaid state diagrams from machine configs.
package visualizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/flowstate-dev/flowstate/machine"
)

// Visualizer errors.
var (
	ErrConfigNil      = errors.New("config cannot be nil")
	ErrNoInitialState = errors.New("config must have an initial state")
)

// GenerateMermaid converts a Config to a Mermaid state diagram.
func GenerateMermaid(config *machine.Config) (string, error) {
	return GenerateMermaidWithOptions(config, DefaultOptions())
}

// GenerateMermaidFromDefinition renders a diagram from a built Definition.
// Guard functions carry no names, so guarded transitions are marked with a
// "[guarded]" suffix instead of guard labels; render from the Config form
// when guard names matter.
func GenerateMermaidFromDefinition(def *machine.Definition, opts Options) (string, error) {
	if def == nil {
		return "", ErrConfigNil
	}

	var sb strings.Builder

	if opts.Fenced {
		sb.WriteString("```mermaid\n")
	}

	fmt.Fprintf(&sb, "stateDiagram-v2\n")

	if opts.Direction != "" && opts.Direction != "TD" {
		fmt.Fprintf(&sb, "    direction %s\n", opts.Direction)
	}

	fmt.Fprintf(&sb, "    [*] --> %s\n", def.Initial())

	for _, name := range def.StateNames() {
		state, _ := def.State(name)

		if len(state.Events()) == 0 {
			fmt.Fprintf(&sb, "    %s --> [*]\n", name)
		}

		for _, event := range state.Events() {
			for _, tr := range state.TransitionsFor(event) {
				label := ""
				if opts.ShowEvents {
					label = ": " + event
					if opts.ShowGuards && tr.GuardCount() > 0 {
						label += " [guarded]"
					}
				}

				fmt.Fprintf(&sb, "    %s --> %s%s\n", name, tr.Target(), label)
			}
		}
	}

	if opts.Fenced {
		sb.WriteString("```\n")
	}

	return sb.String(), nil
}

// GenerateMermaidFromFile loads a YAML config and generates a diagram.
func GenerateMermaidFromFile(path string) (string, error) {
	config, err := machine.LoadConfig(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	return GenerateMermaid(config)
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
// States are emitted in sorted name order and transitions in sorted event
// order, so output is deterministic and diff-friendly.
func GenerateMermaidWithOptions(config *machine.Config, opts Options) (string, error) {
	if config == nil {
		return "", ErrConfigNil
	}

	if config.Initial == "" {
		return "", ErrNoInitialState
	}

	var sb strings.Builder

	if opts.Fenced {
		sb.WriteString("```mermaid\n")
	}

	fmt.Fprintf(&sb, "stateDiagram-v2\n")

	if opts.Direction != "" && opts.Direction != "TD" {
		fmt.Fprintf(&sb, "    direction %s\n", opts.Direction)
	}

	fmt.Fprintf(&sb, "    [*] --> %s\n", config.Initial)

	highlighted := make(map[string]bool, len(opts.HighlightPath))
	for _, state := range opts.HighlightPath {
		highlighted[state] = true
	}

	for _, name := range config.StateNames() {
		state := config.States[name]

		switch {
		case highlighted[name]:
			fmt.Fprintf(&sb, "    class %s highlighted\n", name)
		case len(state.On) == 0:
			// No way out, render as terminal
			fmt.Fprintf(&sb, "    %s --> [*]\n", name)
		}

		for _, event := range sortedEvents(state.On) {
			for _, tc := range state.On[event] {
				label := transitionLabel(event, tc, opts)

				fmt.Fprintf(&sb, "    %s --> %s%s\n", name, tc.Target, label)
			}
		}
	}

	if len(opts.HighlightPath) > 0 {
		sb.WriteString("\n")
		sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")
	}

	if opts.Fenced {
		sb.WriteString("```\n")
	}

	return sb.String(), nil
}

// transitionLabel renders ": EVENT [guard1 && guard2]" per the options.
func transitionLabel(event string, tc machine.TransitionConfig, opts Options) string {
	if !opts.ShowEvents {
		return ""
	}

	label := ": " + event

	if opts.ShowGuards && len(tc.Guards) > 0 {
		label += fmt.Sprintf(" [%s]", strings.Join(tc.Guards, " && "))
	}

	return label
}

func sortedEvents(on map[string][]machine.TransitionConfig) []string {
	events := make([]string, 0, len(on))
	for event := range on {
		events = append(events, event)
	}

	sort.Strings(events)

	return events
}
