package sim

import (
	"dronegrid-sim/internal/grid"
)

// Drone holds runtime state for a simulated drone: its identity, sensor
// range, pending behaviors, and the last executed action's result. The grid
// is the source of truth for its position.
type Drone struct {
	ID             string
	DetectionRange int
	LastResult     *ActionResult

	// Ordered behavior queue; the head is the only active behavior, the
	// rest are pending.
	behaviors []Behavior
}

// NewDrone creates a drone with the given id and sensor range.
func NewDrone(id string, detectionRange int) *Drone {
	return &Drone{ID: id, DetectionRange: detectionRange}
}

// Step executes at most one action for this tick. With an empty behavior
// queue it is a no-op (ok=false). A behavior reaching a terminal status is
// popped; the next behavior starts on the following tick, preserving the
// one-action-per-drone-per-tick invariant.
func (d *Drone) Step(g *grid.Grid) (b Behavior, st Status, ok bool) {
	if len(d.behaviors) == 0 {
		return nil, StatusPending, false
	}
	b = d.behaviors[0]
	st = b.Update(d, g)
	// An event handler may have replaced the queue mid-update; only pop the
	// behavior that actually ran.
	if st.Terminal() && len(d.behaviors) > 0 && d.behaviors[0] == b {
		d.behaviors = d.behaviors[1:]
	}
	return b, st, true
}

// SetBehavior cancels all current behaviors and installs b as the only one.
// The previously active behavior, if any, is returned so the caller can
// report the forced abort.
func (d *Drone) SetBehavior(b Behavior) (cancelled Behavior) {
	cancelled = d.ActiveBehavior()
	d.behaviors = d.behaviors[:0]
	if b != nil {
		d.behaviors = append(d.behaviors, b)
	}
	return cancelled
}

// PushBehavior appends b to the pending queue.
func (d *Drone) PushBehavior(b Behavior) {
	if b != nil {
		d.behaviors = append(d.behaviors, b)
	}
}

// ClearBehaviors cancels everything, returning the previously active
// behavior, if any.
func (d *Drone) ClearBehaviors() (cancelled Behavior) {
	return d.SetBehavior(nil)
}

// ActiveBehavior returns the behavior at the head of the queue, or nil.
func (d *Drone) ActiveBehavior() Behavior {
	if len(d.behaviors) == 0 {
		return nil
	}
	return d.behaviors[0]
}

// PendingBehaviors returns the number of queued behaviors, active included.
func (d *Drone) PendingBehaviors() int {
	return len(d.behaviors)
}
