// Package scenario loads scripted mission timelines: operator commands and
// mission goals scheduled against the simulation clock.
package scenario

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted mission: a list of steps fired at given ticks.
type Scenario struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step schedules one operator command or one mission goal. Exactly one of
// Command and Goal must be set.
type Step struct {
	Tick    int    `yaml:"tick"`
	Command string `yaml:"command,omitempty"`
	Goal    string `yaml:"goal,omitempty"`
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks each step names a tick and exactly one payload.
func (s *Scenario) Validate() error {
	for i, st := range s.Steps {
		if st.Tick < 0 {
			return fmt.Errorf("step %d: negative tick %d", i, st.Tick)
		}
		if (st.Command == "") == (st.Goal == "") {
			return fmt.Errorf("step %d: exactly one of command or goal must be set", i)
		}
	}
	return nil
}

// Runner walks a scenario's steps in tick order.
type Runner struct {
	steps []Step
	idx   int
}

// NewRunner returns a runner over the scenario's steps sorted by tick.
// Steps sharing a tick keep their file order.
func NewRunner(s *Scenario) *Runner {
	steps := make([]Step, len(s.Steps))
	copy(steps, s.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Tick < steps[j].Tick })
	return &Runner{steps: steps}
}

// Due returns all steps scheduled at or before tick that have not yet been
// returned.
func (r *Runner) Due(tick int) []Step {
	start := r.idx
	for r.idx < len(r.steps) && r.steps[r.idx].Tick <= tick {
		r.idx++
	}
	return r.steps[start:r.idx]
}

// Done reports whether all steps have been consumed.
func (r *Runner) Done() bool {
	return r.idx >= len(r.steps)
}
