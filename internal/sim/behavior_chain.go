package sim

import (
	"dronegrid-sim/internal/grid"
)

// Chain runs sub-behaviors in order, advancing when the current one
// completes. It completes only when every sub-behavior has completed; an
// aborted or stalled sub-behavior terminates the chain with that status and
// later sub-behaviors never start. This is how "up=3 and down=2" command
// syntax becomes a single queued unit of work.
type Chain struct {
	subs   []Behavior
	idx    int
	status Status
}

// NewChain creates a Chain over the given sub-behaviors. An empty chain
// completes immediately.
func NewChain(subs ...Behavior) *Chain {
	return &Chain{subs: subs}
}

func (c *Chain) Kind() string { return "chain" }

// Active returns the currently running sub-behavior, or nil.
func (c *Chain) Active() Behavior {
	if c.idx < len(c.subs) {
		return c.subs[c.idx]
	}
	return nil
}

func (c *Chain) Update(d *Drone, g *grid.Grid) Status {
	if c.status.Terminal() {
		return c.status
	}
	if c.idx >= len(c.subs) {
		c.status = StatusCompleted
		return c.status
	}
	c.status = StatusActive
	switch st := c.subs[c.idx].Update(d, g); st {
	case StatusCompleted:
		c.idx++
		if c.idx >= len(c.subs) {
			c.status = StatusCompleted
		}
	case StatusAborted, StatusStalled:
		c.status = st
	}
	return c.status
}
