package sim

import (
	"errors"

	"dronegrid-sim/internal/grid"
)

// Patrol cycles through the waypoint list indefinitely, walking shortest
// cardinal legs between consecutive waypoints. It never completes on its
// own; it ends only through external cancellation, a stalled leg, or an
// unrecoverable movement error.
type Patrol struct {
	Waypoints  []grid.Cell
	RetryLimit int
	idx        int
	retries    int
	status     Status
}

// NewPatrol creates a Patrol behavior. An empty waypoint list completes
// immediately.
func NewPatrol(waypoints []grid.Cell) *Patrol {
	return &Patrol{Waypoints: waypoints, RetryLimit: defaultRetryLimit}
}

func (p *Patrol) Kind() string { return "patrol" }

func (p *Patrol) Update(d *Drone, g *grid.Grid) Status {
	if p.status.Terminal() {
		return p.status
	}
	if len(p.Waypoints) == 0 {
		p.status = StatusCompleted
		return p.status
	}
	pos, ok := g.PositionOf(d.ID)
	if !ok {
		p.status = StatusAborted
		return p.status
	}
	p.status = StatusActive
	if pos == p.Waypoints[p.idx] {
		p.idx = (p.idx + 1) % len(p.Waypoints)
	}
	if pos == p.Waypoints[p.idx] {
		// Degenerate route: all waypoints at the current cell.
		execute(Action{Kind: ActionWait}, d, g)
		return p.status
	}
	res := execute(Action{Kind: ActionMove, Direction: stepToward(pos, p.Waypoints[p.idx])}, d, g)
	switch {
	case res.Err == nil:
		p.retries = 0
	case errors.Is(res.Err, grid.ErrBlocked):
		if p.retries >= p.RetryLimit {
			p.status = StatusStalled
		} else {
			p.retries++
		}
	default:
		p.status = StatusAborted
	}
	return p.status
}
