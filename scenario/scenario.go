// Package scenario replays scripted mutations against a reactive model and
// records what every watcher saw. Scenarios are YAML files:
//
//	name: basic
//	data: {a: 1}
//	watchers:
//	  - name: x
//	    reads: [a]
//	steps:
//	  - set: {key: a, value: 2}
//	  - flush: true
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("invalid scenario")
	ErrMissing = errors.New("required value missing")
)

type Scenario struct {
	// Name identifies the scenario in traces and golden files.
	Name string `yaml:"name"`

	// Data is the initial content of the root model.
	Data map[string]any `yaml:"data"`

	// Watchers become one computation each, created in order before the
	// first step runs.
	Watchers []Watcher `yaml:"watchers"`

	Steps []Step `yaml:"steps"`
}

// Watcher reads a fixed set of paths every time it runs.
type Watcher struct {
	Name string `yaml:"name"`

	// Reads are dotted paths into the root model, list indices as numbers
	// (e.g. "todos.0.title").
	Reads []string `yaml:"reads"`

	// Keys also reads the root model's key set.
	Keys bool `yaml:"keys,omitempty"`

	// Require makes a run fail with ErrMissing when a read resolves to none.
	Require bool `yaml:"require,omitempty"`
}

// Step is exactly one action.
type Step struct {
	Set    *SetStep `yaml:"set,omitempty"`
	Delete string   `yaml:"delete,omitempty"`
	Flush  bool     `yaml:"flush,omitempty"`
	Pump   bool     `yaml:"pump,omitempty"`
	Stop   string   `yaml:"stop,omitempty"`

	// Batch groups steps so their invalidations request a single flush.
	Batch []Step `yaml:"batch,omitempty"`
}

type SetStep struct {
	Key   string `yaml:"key"`
	Value any    `yaml:"value"`
}

func (s Step) action() string {
	var names []string
	if s.Set != nil {
		names = append(names, "set")
	}
	if s.Delete != "" {
		names = append(names, "delete")
	}
	if s.Flush {
		names = append(names, "flush")
	}
	if s.Pump {
		names = append(names, "pump")
	}
	if s.Stop != "" {
		names = append(names, "stop")
	}
	if len(s.Batch) > 0 {
		names = append(names, "batch")
	}
	if len(names) != 1 {
		return ""
	}
	return names[0]
}

// LoadFile reads and parses a scenario file.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return Parse(data)
}

func Load(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario, rejecting unknown fields, and validates it.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks names and that every step carries exactly one action.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}

	seen := map[string]bool{}
	for i, w := range sc.Watchers {
		if w.Name == "" {
			return fmt.Errorf("%w: watchers[%d]: name is required", ErrInvalid, i)
		}
		if seen[w.Name] {
			return fmt.Errorf("%w: watchers[%d]: duplicate name %q", ErrInvalid, i, w.Name)
		}
		seen[w.Name] = true
	}

	return validateSteps("steps", sc.Steps, seen)
}

func validateSteps(prefix string, steps []Step, watchers map[string]bool) error {
	for i, s := range steps {
		where := fmt.Sprintf("%s[%d]", prefix, i)
		switch s.action() {
		case "":
			return fmt.Errorf("%w: %s: exactly one action is required", ErrInvalid, where)
		case "set":
			if s.Set.Key == "" {
				return fmt.Errorf("%w: %s.set: key is required", ErrInvalid, where)
			}
		case "stop":
			if !watchers[s.Stop] {
				return fmt.Errorf("%w: %s.stop: unknown watcher %q", ErrInvalid, where, s.Stop)
			}
		case "batch":
			if err := validateSteps(where+".batch", s.Batch, watchers); err != nil {
				return err
			}
		}
	}
	return nil
}
