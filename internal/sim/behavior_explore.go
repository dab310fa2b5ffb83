package sim

import (
	"errors"

	"dronegrid-sim/internal/grid"
)

// Explore interleaves scans with movement toward the nearest cell its scans
// have not covered yet (frontier policy). It completes once every target on
// the grid has been found, or once its scans cover the whole grid.
type Explore struct {
	ScanInterval int // moves between scans
	RetryLimit   int
	covered      map[grid.Cell]bool
	sinceScan    int
	retries      int
	status       Status
}

// NewExplore creates an Explore behavior that scans after every move.
func NewExplore() *Explore {
	return &Explore{ScanInterval: 1, RetryLimit: defaultRetryLimit, covered: make(map[grid.Cell]bool)}
}

func (e *Explore) Kind() string { return "explore" }

func (e *Explore) Update(d *Drone, g *grid.Grid) Status {
	if e.status.Terminal() {
		return e.status
	}
	if g.UnfoundTargetCount() == 0 {
		e.status = StatusCompleted
		return e.status
	}
	pos, ok := g.PositionOf(d.ID)
	if !ok {
		e.status = StatusAborted
		return e.status
	}
	e.status = StatusActive

	if e.sinceScan >= e.ScanInterval || !e.covered[pos] {
		execute(Action{Kind: ActionScan}, d, g)
		e.markCovered(pos, d.DetectionRange, g)
		e.sinceScan = 0
		if g.UnfoundTargetCount() == 0 {
			e.status = StatusCompleted
		}
		return e.status
	}

	goal, found := e.nearestUncovered(pos, g)
	if !found {
		// Full coverage; any remaining target would have been detected.
		e.status = StatusCompleted
		return e.status
	}
	res := execute(Action{Kind: ActionMove, Direction: stepToward(pos, goal)}, d, g)
	switch {
	case res.Err == nil:
		e.retries = 0
		e.sinceScan++
	case errors.Is(res.Err, grid.ErrBlocked):
		if e.retries >= e.RetryLimit {
			e.status = StatusStalled
		} else {
			e.retries++
		}
	default:
		e.status = StatusAborted
	}
	return e.status
}

// markCovered records the Chebyshev square a scan at pos covered.
func (e *Explore) markCovered(pos grid.Cell, rng int, g *grid.Grid) {
	for dy := -rng; dy <= rng; dy++ {
		for dx := -rng; dx <= rng; dx++ {
			c := grid.Cell{X: pos.X + dx, Y: pos.Y + dy}
			if g.InBounds(c) {
				e.covered[c] = true
			}
		}
	}
}

// nearestUncovered returns the closest cell no scan has covered, by
// Manhattan distance with row-major tie-breaking.
func (e *Explore) nearestUncovered(pos grid.Cell, g *grid.Grid) (grid.Cell, bool) {
	var best grid.Cell
	bestDist := -1
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			c := grid.Cell{X: x, Y: y}
			if e.covered[c] {
				continue
			}
			dist := abs(c.X-pos.X) + abs(c.Y-pos.Y)
			if bestDist < 0 || dist < bestDist {
				best, bestDist = c, dist
			}
		}
	}
	return best, bestDist >= 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
