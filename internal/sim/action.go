package sim

import (
	"fmt"

	"dronegrid-sim/internal/grid"
)

// ActionKind identifies a primitive one-tick operation.
type ActionKind string

const (
	ActionMove ActionKind = "move"
	ActionWait ActionKind = "wait"
	ActionScan ActionKind = "scan"
)

// Action is a value object describing one atomic operation. It never
// outlives the tick that executes it.
type Action struct {
	Kind      ActionKind
	Direction grid.Direction // move only
}

// ActionResult carries the outcome of an executed action back to the
// owning behavior, which decides whether to retry, skip, or abort.
type ActionResult struct {
	Action Action
	Err    error
	Found  []grid.Cell // scan only: newly found targets
}

// execute runs one action against the grid on behalf of a drone and records
// the result on the drone. Rejections surface in the result, never silently.
func execute(a Action, d *Drone, g *grid.Grid) ActionResult {
	res := ActionResult{Action: a}
	switch a.Kind {
	case ActionMove:
		mr := g.Move(d.ID, a.Direction)
		res.Err = mr.Err
	case ActionWait:
		// Consumes the tick with no spatial effect.
	case ActionScan:
		sr, err := g.Scan(d.ID, d.DetectionRange)
		res.Err = err
		res.Found = sr.Found
	default:
		res.Err = fmt.Errorf("unknown action kind %q", a.Kind)
	}
	d.LastResult = &res
	return res
}
