package machine

import (
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config is the declarative form of a machine definition. Guards and actions
// are referenced by name and resolved against a Registry when the config is
// turned into a Definition.
type Config struct {
	ID      string                 `json:"id"      yaml:"id"`
	Initial string                 `json:"initial" yaml:"initial"`
	Context map[string]any         `json:"context" yaml:"context"`
	States  map[string]StateConfig `json:"states"  yaml:"states"`
}

// StateConfig declares one state: entry/exit action names and transitions
// keyed by event name. The candidate list per event keeps declaration order.
type StateConfig struct {
	Entry []string                      `json:"entry" yaml:"entry"`
	Exit  []string                      `json:"exit"  yaml:"exit"`
	On    map[string][]TransitionConfig `json:"on"    yaml:"on"`
}

// TransitionConfig declares one transition candidate. Guards form a
// conjunction; Actions run in order during the transition step.
type TransitionConfig struct {
	Target  string   `json:"target"  yaml:"target"`
	Guards  []string `json:"guards"  yaml:"guards"`
	Actions []string `json:"actions" yaml:"actions"`
}

// LoadConfig reads and parses a YAML machine config from a file path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes parses a YAML machine config.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigFromFS loads a config from a filesystem, typically an embed.FS.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// Validate checks the config's structural integrity: required fields and
// referential consistency of the state graph. Guard and action names are
// resolved later, by FromConfig against a Registry.
func (c *Config) Validate() error {
	if c.ID == "" {
		return ErrMachineIDRequired
	}

	if len(c.States) == 0 {
		return ErrStateRequired
	}

	if c.Initial == "" {
		return ErrInitialStateRequired
	}

	if _, ok := c.States[c.Initial]; !ok {
		return fmt.Errorf("%w: %s", ErrInitialStateNotFound, c.Initial)
	}

	for name, state := range c.States {
		if name == "" {
			return ErrStateNameRequired
		}

		for event, candidates := range state.On {
			if event == "" {
				return fmt.Errorf("state %s: %w", name, ErrEventNameRequired)
			}

			for i, tc := range candidates {
				if tc.Target == "" {
					return fmt.Errorf("state %s, event %q, candidate %d: %w",
						name, event, i, ErrStateNameRequired)
				}

				if _, ok := c.States[tc.Target]; !ok {
					return fmt.Errorf("%w: %s -> %s on %q",
						ErrTargetStateNotFound, name, tc.Target, event)
				}
			}
		}
	}

	return nil
}

// StateNames returns the config's state names, sorted for deterministic
// iteration (YAML maps carry no order).
func (c *Config) StateNames() []string {
	names := make([]string, 0, len(c.States))
	for name := range c.States {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// FromConfig resolves a validated config against a registry and builds the
// Definition. Unknown guard or action names fail here, at build time.
func FromConfig(config *Config, registry *Registry) (*Definition, error) {
	err := config.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if registry == nil {
		registry = NewRegistry()
	}

	builder := New(config.ID).Initial(config.Initial).Context(config.Context)

	for _, name := range config.StateNames() {
		stateConfig := config.States[name]
		sb := builder.State(name)

		for _, actionName := range stateConfig.Entry {
			action, ok := registry.Action(actionName)
			if !ok {
				return nil, fmt.Errorf("%w: %q (entry of state %s)", ErrUnknownActionName, actionName, name)
			}

			sb.Enter(action)
		}

		for _, actionName := range stateConfig.Exit {
			action, ok := registry.Action(actionName)
			if !ok {
				return nil, fmt.Errorf("%w: %q (exit of state %s)", ErrUnknownActionName, actionName, name)
			}

			sb.Exit(action)
		}

		for _, event := range sortedEvents(stateConfig.On) {
			for _, tc := range stateConfig.On[event] {
				tb := sb.On(event, tc.Target)

				for _, guardName := range tc.Guards {
					guard, ok := registry.Guard(guardName)
					if !ok {
						return nil, fmt.Errorf("%w: %q (state %s on %q)",
							ErrUnknownGuardName, guardName, name, event)
					}

					tb.If(guard)
				}

				for _, actionName := range tc.Actions {
					action, ok := registry.Action(actionName)
					if !ok {
						return nil, fmt.Errorf("%w: %q (state %s on %q)",
							ErrUnknownActionName, actionName, name, event)
					}

					tb.Do(action)
				}
			}
		}
	}

	return builder.Build()
}

func sortedEvents(on map[string][]TransitionConfig) []string {
	events := make([]string, 0, len(on))
	for event := range on {
		events = append(events, event)
	}

	sort.Strings(events)

	return events
}
