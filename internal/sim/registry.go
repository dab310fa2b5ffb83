package sim

import (
	"errors"
	"fmt"
	"sort"

	"dronegrid-sim/internal/grid"
)

// ErrUnknownBehavior marks a behavior kind no factory is registered for.
var ErrUnknownBehavior = errors.New("unknown behavior kind")

// BehaviorFactory builds a behavior from named parameters, typically decoded
// from a parsed command or a JSON plan.
type BehaviorFactory func(params map[string]any) (Behavior, error)

// Registry maps behavior kind names to constructor functions, enabling
// data-driven instantiation from parsed commands.
type Registry struct {
	factories map[string]BehaviorFactory
}

// NewRegistry returns a registry with all built-in behavior kinds registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]BehaviorFactory)}
	r.Register("move_steps", newMoveStepsFromParams)
	r.Register("move_to", newMoveToFromParams)
	r.Register("patrol", newPatrolFromParams)
	r.Register("explore", func(map[string]any) (Behavior, error) { return NewExplore(), nil })
	r.Register("wait", newWaitFromParams)
	r.Register("scan", func(map[string]any) (Behavior, error) { return NewScanOnce(), nil })
	return r
}

// Register adds or replaces the factory for a kind.
func (r *Registry) Register(kind string, f BehaviorFactory) {
	r.factories[kind] = f
}

// New instantiates a behavior by kind name.
func (r *Registry) New(kind string, params map[string]any) (Behavior, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("behavior %q: %w", kind, ErrUnknownBehavior)
	}
	return f(params)
}

// Kinds lists all registered kind names, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func newMoveStepsFromParams(params map[string]any) (Behavior, error) {
	dirStr, ok := stringParam(params, "direction")
	if !ok {
		return nil, fmt.Errorf("move_steps: missing direction")
	}
	dir, err := grid.ParseDirection(dirStr)
	if err != nil {
		return nil, fmt.Errorf("move_steps: %w", err)
	}
	steps, ok := intParam(params, "steps")
	if !ok || steps < 0 {
		return nil, fmt.Errorf("move_steps: missing or negative steps")
	}
	b := NewMoveSteps(dir, steps)
	if limit, ok := intParam(params, "retry_limit"); ok && limit >= 0 {
		b.RetryLimit = limit
	}
	return b, nil
}

func newMoveToFromParams(params map[string]any) (Behavior, error) {
	x, okX := intParam(params, "x")
	y, okY := intParam(params, "y")
	if !okX || !okY {
		return nil, fmt.Errorf("move_to: missing x or y")
	}
	return NewMoveToPosition(grid.Cell{X: x, Y: y}), nil
}

func newPatrolFromParams(params map[string]any) (Behavior, error) {
	raw, ok := params["waypoints"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("patrol: missing waypoints")
	}
	waypoints := make([]grid.Cell, 0, len(raw))
	for i, wp := range raw {
		m, ok := wp.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("patrol: waypoint %d is not an object", i)
		}
		x, okX := intParam(m, "x")
		y, okY := intParam(m, "y")
		if !okX || !okY {
			return nil, fmt.Errorf("patrol: waypoint %d missing x or y", i)
		}
		waypoints = append(waypoints, grid.Cell{X: x, Y: y})
	}
	return NewPatrol(waypoints), nil
}

func newWaitFromParams(params map[string]any) (Behavior, error) {
	ticks, ok := intParam(params, "ticks")
	if !ok {
		ticks = 1
	}
	return NewWait(ticks), nil
}

// intParam reads an integer parameter, accepting the numeric types JSON and
// YAML decoders produce.
func intParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func stringParam(params map[string]any, key string) (string, bool) {
	s, ok := params[key].(string)
	return s, ok
}
