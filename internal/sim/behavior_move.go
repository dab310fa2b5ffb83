package sim

import (
	"errors"

	"dronegrid-sim/internal/grid"
)

// MoveSteps emits move(direction) count times, then completes. A blocked
// move is re-attempted up to RetryLimit extra ticks before the behavior
// flags itself Stalled; an out-of-bounds move aborts it.
type MoveSteps struct {
	Direction  grid.Direction
	RetryLimit int
	remaining  int
	retries    int
	status     Status
}

// NewMoveSteps creates a MoveSteps behavior. A count of zero completes
// immediately without emitting any action.
func NewMoveSteps(dir grid.Direction, count int) *MoveSteps {
	return &MoveSteps{Direction: dir, remaining: count, RetryLimit: defaultRetryLimit}
}

func (m *MoveSteps) Kind() string { return "move_steps" }

// Remaining returns the number of moves still to emit.
func (m *MoveSteps) Remaining() int { return m.remaining }

func (m *MoveSteps) Update(d *Drone, g *grid.Grid) Status {
	if m.status.Terminal() {
		return m.status
	}
	if m.remaining <= 0 {
		m.status = StatusCompleted
		return m.status
	}
	m.status = StatusActive
	res := execute(Action{Kind: ActionMove, Direction: m.Direction}, d, g)
	switch {
	case res.Err == nil:
		m.remaining--
		m.retries = 0
		if m.remaining == 0 {
			m.status = StatusCompleted
		}
	case errors.Is(res.Err, grid.ErrBlocked):
		if m.retries >= m.RetryLimit {
			m.status = StatusStalled
		} else {
			m.retries++
		}
	default:
		m.status = StatusAborted
	}
	return m.status
}

// MoveToPosition walks a shortest cardinal path to the target cell, X axis
// first, and completes on arrival. It aborts when the target is out of
// bounds or, under strict occupancy, when a leg stays blocked past the
// retry budget.
type MoveToPosition struct {
	Target     grid.Cell
	RetryLimit int
	retries    int
	status     Status
}

// NewMoveToPosition creates a MoveToPosition behavior.
func NewMoveToPosition(target grid.Cell) *MoveToPosition {
	return &MoveToPosition{Target: target, RetryLimit: defaultRetryLimit}
}

func (m *MoveToPosition) Kind() string { return "move_to" }

func (m *MoveToPosition) Update(d *Drone, g *grid.Grid) Status {
	if m.status.Terminal() {
		return m.status
	}
	pos, ok := g.PositionOf(d.ID)
	if !ok || !g.InBounds(m.Target) {
		m.status = StatusAborted
		return m.status
	}
	if pos == m.Target {
		m.status = StatusCompleted
		return m.status
	}
	m.status = StatusActive
	res := execute(Action{Kind: ActionMove, Direction: stepToward(pos, m.Target)}, d, g)
	switch {
	case res.Err == nil:
		m.retries = 0
		if cur, _ := g.PositionOf(d.ID); cur == m.Target {
			m.status = StatusCompleted
		}
	case errors.Is(res.Err, grid.ErrBlocked):
		// Persistently blocked legs mean no open path remains.
		if m.retries >= m.RetryLimit {
			m.status = StatusAborted
		} else {
			m.retries++
		}
	default:
		m.status = StatusAborted
	}
	return m.status
}

// stepToward picks the next cardinal step on a shortest Manhattan path,
// resolving the X axis before the Y axis.
func stepToward(from, to grid.Cell) grid.Direction {
	switch {
	case from.X < to.X:
		return grid.DirRight
	case from.X > to.X:
		return grid.DirLeft
	case from.Y < to.Y:
		return grid.DirDown
	default:
		return grid.DirUp
	}
}
