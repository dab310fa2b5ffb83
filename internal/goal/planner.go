// Package goal turns high-level mission goals into concrete drone commands.
// A Planner produces structured commands from a goal sentence and the current
// world snapshot; the Translator applies those commands to the simulation.
package goal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"dronegrid-sim/internal/grid"
	"dronegrid-sim/internal/sim"
	"dronegrid-sim/internal/telemetry"
)

// ErrNoDrones is returned when a plan is requested for an empty swarm.
var ErrNoDrones = errors.New("no drones to plan for")

// ErrBadCommand marks a structurally invalid planner command.
var ErrBadCommand = errors.New("invalid planner command")

// Movement is one leg of a move command.
type Movement struct {
	Direction string `json:"direction"`
	Steps     int    `json:"steps"`
}

// Point is a grid coordinate in planner output.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Parameters carries the per-command-type arguments. Only the fields relevant
// to the command type are set.
type Parameters struct {
	Movements []Movement `json:"movements,omitempty"`
	Position  *Point     `json:"position,omitempty"`
	Waypoints []Point    `json:"waypoints,omitempty"`
	Ticks     int        `json:"ticks,omitempty"`
}

// Target names the drone a command applies to.
type Target struct {
	DroneID string `json:"drone_id"`
}

// Command is the wire format planners emit. CommandType is one of move,
// move_to, patrol, explore, scan, wait, stop.
type Command struct {
	CommandType string     `json:"command_type"`
	Target      Target     `json:"target"`
	Parameters  Parameters `json:"parameters"`
}

// Planner produces commands for a goal given the current world state.
type Planner interface {
	Plan(ctx context.Context, goal string, snap telemetry.Snapshot) ([]Command, error)
}

// DecodeCommands reads planner output: either a single command object or an
// array of them.
func DecodeCommands(r io.Reader) ([]Command, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read planner output: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrBadCommand)
	}
	if raw[0] == '[' {
		var cmds []Command
		if err := json.Unmarshal(raw, &cmds); err != nil {
			return nil, fmt.Errorf("decode planner output: %w", err)
		}
		return cmds, nil
	}
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, fmt.Errorf("decode planner output: %w", err)
	}
	return []Command{cmd}, nil
}

// MockPlanner is a deterministic stand-in for an external planning service.
// It keys off simple words in the goal sentence and fans the work out over
// the swarm.
type MockPlanner struct{}

// Plan implements Planner.
func (MockPlanner) Plan(_ context.Context, goalText string, snap telemetry.Snapshot) ([]Command, error) {
	if len(snap.Drones) == 0 {
		return nil, ErrNoDrones
	}
	lower := strings.ToLower(goalText)
	cmds := make([]Command, 0, len(snap.Drones))
	switch {
	case strings.Contains(lower, "hold") || strings.Contains(lower, "wait"):
		for _, d := range snap.Drones {
			cmds = append(cmds, Command{
				CommandType: "wait",
				Target:      Target{DroneID: d.DroneID},
				Parameters:  Parameters{Ticks: 5},
			})
		}
	case strings.Contains(lower, "perimeter") || strings.Contains(lower, "patrol"):
		route := perimeterRoute(snap.Width, snap.Height)
		for _, d := range snap.Drones {
			cmds = append(cmds, Command{
				CommandType: "patrol",
				Target:      Target{DroneID: d.DroneID},
				Parameters:  Parameters{Waypoints: route},
			})
		}
	default:
		// Search goals and anything unrecognized fall back to exploration.
		for _, d := range snap.Drones {
			cmds = append(cmds, Command{
				CommandType: "explore",
				Target:      Target{DroneID: d.DroneID},
			})
		}
	}
	return cmds, nil
}

func perimeterRoute(width, height int) []Point {
	if width < 2 || height < 2 {
		return []Point{{X: 0, Y: 0}}
	}
	return []Point{
		{X: 0, Y: 0},
		{X: width - 1, Y: 0},
		{X: width - 1, Y: height - 1},
		{X: 0, Y: height - 1},
	}
}

// Dispatcher is the simulator surface the translator needs.
type Dispatcher interface {
	Dispatch(droneID string, b sim.Behavior) error
	DispatchLegs(droneID string, legs []sim.MoveLeg) error
	StopDrone(droneID string) error
	NewBehavior(kind string, params map[string]any) (sim.Behavior, error)
}

// Translator applies planner commands to the simulation.
type Translator struct {
	sim Dispatcher
}

// NewTranslator returns a translator bound to the given dispatcher.
func NewTranslator(d Dispatcher) *Translator {
	return &Translator{sim: d}
}

// Apply executes all commands in order. The first failure stops the batch.
func (t *Translator) Apply(cmds []Command) error {
	for i, cmd := range cmds {
		if err := t.apply(cmd); err != nil {
			return fmt.Errorf("command %d (%s): %w", i, cmd.CommandType, err)
		}
	}
	return nil
}

func (t *Translator) apply(cmd Command) error {
	id := cmd.Target.DroneID
	if id == "" {
		return fmt.Errorf("%w: missing target drone", ErrBadCommand)
	}
	switch cmd.CommandType {
	case "move":
		legs := make([]sim.MoveLeg, 0, len(cmd.Parameters.Movements))
		for _, m := range cmd.Parameters.Movements {
			dir, err := grid.ParseDirection(m.Direction)
			if err != nil {
				return err
			}
			legs = append(legs, sim.MoveLeg{Direction: dir, Steps: m.Steps})
		}
		if len(legs) == 0 {
			return fmt.Errorf("%w: move without movements", ErrBadCommand)
		}
		return t.sim.DispatchLegs(id, legs)

	case "move_to":
		if cmd.Parameters.Position == nil {
			return fmt.Errorf("%w: move_to without position", ErrBadCommand)
		}
		b, err := t.sim.NewBehavior("move_to", map[string]any{
			"x": cmd.Parameters.Position.X,
			"y": cmd.Parameters.Position.Y,
		})
		if err != nil {
			return err
		}
		return t.sim.Dispatch(id, b)

	case "patrol":
		waypoints := make([]any, 0, len(cmd.Parameters.Waypoints))
		for _, wp := range cmd.Parameters.Waypoints {
			waypoints = append(waypoints, map[string]any{"x": wp.X, "y": wp.Y})
		}
		b, err := t.sim.NewBehavior("patrol", map[string]any{"waypoints": waypoints})
		if err != nil {
			return err
		}
		return t.sim.Dispatch(id, b)

	case "explore":
		b, err := t.sim.NewBehavior("explore", nil)
		if err != nil {
			return err
		}
		return t.sim.Dispatch(id, b)

	case "scan":
		b, err := t.sim.NewBehavior("scan", nil)
		if err != nil {
			return err
		}
		return t.sim.Dispatch(id, b)

	case "wait":
		b, err := t.sim.NewBehavior("wait", map[string]any{"ticks": cmd.Parameters.Ticks})
		if err != nil {
			return err
		}
		return t.sim.Dispatch(id, b)

	case "stop":
		return t.sim.StopDrone(id)
	}
	return fmt.Errorf("%w: unknown command_type %q", ErrBadCommand, cmd.CommandType)
}
