package sim

import (
	"dronegrid-sim/internal/grid"
)

// Status tracks a behavior through its lifecycle. Pending behaviors have not
// produced an action yet; Completed, Aborted, and Stalled are terminal.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusCompleted
	StatusAborted
	StatusStalled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusAborted:
		return "aborted"
	case StatusStalled:
		return "stalled"
	}
	return "unknown"
}

// Terminal reports whether the behavior has finished for good.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted || s == StatusStalled
}

// Behavior is a stateful multi-tick plan. Each Update call executes at most
// one action for the drone and returns the behavior's status afterwards.
// Update is never called again once a terminal status has been returned.
type Behavior interface {
	Kind() string
	Update(d *Drone, g *grid.Grid) Status
}

// defaultRetryLimit bounds re-attempts of a blocked move before a behavior
// flags itself Stalled.
const defaultRetryLimit = 1
