package sim

import (
	"dronegrid-sim/internal/grid"
)

// Wait consumes the given number of ticks with no spatial effect. Useful as
// a filler inside chains and for reaction handlers that pause a drone.
type Wait struct {
	remaining int
	status    Status
}

// NewWait creates a Wait behavior. A non-positive tick count completes
// immediately.
func NewWait(ticks int) *Wait {
	return &Wait{remaining: ticks}
}

func (w *Wait) Kind() string { return "wait" }

func (w *Wait) Update(d *Drone, g *grid.Grid) Status {
	if w.status.Terminal() {
		return w.status
	}
	if w.remaining <= 0 {
		w.status = StatusCompleted
		return w.status
	}
	w.status = StatusActive
	execute(Action{Kind: ActionWait}, d, g)
	w.remaining--
	if w.remaining == 0 {
		w.status = StatusCompleted
	}
	return w.status
}

// ScanOnce issues a single scan and completes.
type ScanOnce struct {
	status Status
}

// NewScanOnce creates a ScanOnce behavior.
func NewScanOnce() *ScanOnce {
	return &ScanOnce{}
}

func (s *ScanOnce) Kind() string { return "scan" }

func (s *ScanOnce) Update(d *Drone, g *grid.Grid) Status {
	if s.status.Terminal() {
		return s.status
	}
	res := execute(Action{Kind: ActionScan}, d, g)
	if res.Err != nil {
		s.status = StatusAborted
	} else {
		s.status = StatusCompleted
	}
	return s.status
}
