// Grid environment owning the bounded 2D space, occupancy, and targets.
package grid

import (
	"errors"
	"fmt"
	"math/rand"

	"dronegrid-sim/internal/event"
)

var (
	// ErrOutOfBounds marks a movement target outside the grid.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrBlocked marks a movement into an occupied cell under strict occupancy.
	ErrBlocked = errors.New("cell blocked")
	// ErrInsufficientSpace marks a target placement request exceeding free cells.
	ErrInsufficientSpace = errors.New("insufficient space for targets")
	// ErrUnknownDrone marks an operation referencing a drone the grid does not track.
	ErrUnknownDrone = errors.New("unknown drone")
)

// Cell is one grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction is a cardinal movement direction.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// Delta returns the unit vector for the direction. The origin is the top-left
// corner, so up decreases Y and down increases it.
func (d Direction) Delta() (dx, dy int, ok bool) {
	switch d {
	case DirUp:
		return 0, -1, true
	case DirDown:
		return 0, 1, true
	case DirLeft:
		return -1, 0, true
	case DirRight:
		return 1, 0, true
	}
	return 0, 0, false
}

// ParseDirection converts a string into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirUp, DirDown, DirLeft, DirRight:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q", s)
}

// Target is a target cell with its found flag.
type Target struct {
	Cell  Cell `json:"cell"`
	Found bool `json:"found"`
}

// MoveResult reports the outcome of one move.
type MoveResult struct {
	From Cell
	To   Cell
	Err  error
}

// ScanResult reports the outcome of one scan.
type ScanResult struct {
	Origin Cell
	Found  []Cell // newly found targets, scan order
}

// Grid tracks drone positions, cell occupancy, and targets. It is the single
// source of truth for positions; the occupancy map always equals the union of
// drone positions. Not safe for concurrent use; the simulator serializes all
// access under its tick lock.
type Grid struct {
	width, height int
	strict        bool
	positions     map[string]Cell
	occupants     map[Cell][]string
	targets       map[Cell]bool
	droneOrder    []string
	bus           *event.Bus
}

// New creates a grid. Strict mode makes moves into occupied cells fail with
// ErrBlocked instead of reporting a collision event.
func New(width, height int, strict bool, bus *event.Bus) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid bounds %dx%d: %w", width, height, ErrOutOfBounds)
	}
	return &Grid{
		width:     width,
		height:    height,
		strict:    strict,
		positions: make(map[string]Cell),
		occupants: make(map[Cell][]string),
		targets:   make(map[Cell]bool),
		bus:       bus,
	}, nil
}

// Width returns the horizontal bound.
func (g *Grid) Width() int { return g.width }

// Height returns the vertical bound.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether c lies within [0,width)x[0,height).
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// AddDrone registers a drone at the given cell.
func (g *Grid) AddDrone(id string, c Cell) error {
	if !g.InBounds(c) {
		return fmt.Errorf("add drone %s at (%d,%d): %w", id, c.X, c.Y, ErrOutOfBounds)
	}
	if _, exists := g.positions[id]; exists {
		return fmt.Errorf("drone %s already placed", id)
	}
	g.positions[id] = c
	g.occupants[c] = append(g.occupants[c], id)
	g.droneOrder = append(g.droneOrder, id)
	return nil
}

// PositionOf returns the current cell of a drone.
func (g *Grid) PositionOf(id string) (Cell, bool) {
	c, ok := g.positions[id]
	return c, ok
}

// DronesAt returns the ids of all drones at the cell, in arrival order.
func (g *Grid) DronesAt(c Cell) []string {
	ids := g.occupants[c]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Move steps a drone one cell in the given direction. Out-of-bounds targets
// fail with ErrOutOfBounds and emit a movement_blocked event. Under strict
// occupancy an occupied destination fails with ErrBlocked; otherwise the move
// succeeds and a collision event reports the co-located drones. Successful
// moves emit move_completed.
func (g *Grid) Move(id string, dir Direction) MoveResult {
	from, ok := g.positions[id]
	if !ok {
		return MoveResult{Err: fmt.Errorf("move %s: %w", id, ErrUnknownDrone)}
	}
	dx, dy, ok := dir.Delta()
	if !ok {
		return MoveResult{From: from, Err: fmt.Errorf("move %s: invalid direction %q", id, dir)}
	}
	to := Cell{X: from.X + dx, Y: from.Y + dy}
	if !g.InBounds(to) {
		g.emit(event.TypeMovementBlocked, map[string]any{
			"drone": id, "direction": string(dir), "x": from.X, "y": from.Y,
		})
		return MoveResult{From: from, To: to, Err: fmt.Errorf("move %s to (%d,%d): %w", id, to.X, to.Y, ErrOutOfBounds)}
	}
	occupied := g.occupants[to]
	if g.strict && len(occupied) > 0 {
		g.emit(event.TypeMovementBlocked, map[string]any{
			"drone": id, "direction": string(dir), "x": to.X, "y": to.Y,
		})
		return MoveResult{From: from, To: to, Err: fmt.Errorf("move %s to (%d,%d): %w", id, to.X, to.Y, ErrBlocked)}
	}

	g.removeOccupant(from, id)
	g.positions[id] = to
	g.occupants[to] = append(g.occupants[to], id)

	g.emit(event.TypeMoveCompleted, map[string]any{
		"drone": id, "from_x": from.X, "from_y": from.Y, "x": to.X, "y": to.Y,
	})
	if len(occupied) > 0 {
		others := make([]string, len(occupied))
		copy(others, occupied)
		g.emit(event.TypeCollision, map[string]any{
			"drone": id, "x": to.X, "y": to.Y, "others": others,
		})
	}
	return MoveResult{From: from, To: to}
}

// Scan searches the (2r+1)x(2r+1) Chebyshev square around the drone for
// unfound targets. Each newly found target is marked and emits one
// target_detected event; already-found targets emit nothing.
func (g *Grid) Scan(id string, rng int) (ScanResult, error) {
	origin, ok := g.positions[id]
	if !ok {
		return ScanResult{}, fmt.Errorf("scan %s: %w", id, ErrUnknownDrone)
	}
	res := ScanResult{Origin: origin}
	for dy := -rng; dy <= rng; dy++ {
		for dx := -rng; dx <= rng; dx++ {
			c := Cell{X: origin.X + dx, Y: origin.Y + dy}
			found, exists := g.targets[c]
			if !exists || found || !g.InBounds(c) {
				continue
			}
			g.targets[c] = true
			res.Found = append(res.Found, c)
			g.emit(event.TypeTargetDetected, map[string]any{
				"drone": id, "x": origin.X, "y": origin.Y, "target_x": c.X, "target_y": c.Y,
			})
		}
	}
	g.emit(event.TypeScanCompleted, map[string]any{
		"drone": id, "x": origin.X, "y": origin.Y, "found": len(res.Found),
	})
	if len(res.Found) > 0 && g.UnfoundTargetCount() == 0 {
		g.emit(event.TypeSimulationComplete, map[string]any{"targets": len(g.targets)})
	}
	return res, nil
}

// PlaceTargets scatters n targets on distinct, currently target-free cells.
func (g *Grid) PlaceTargets(n int, rng *rand.Rand) error {
	var free []Cell
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := Cell{X: x, Y: y}
			if _, taken := g.targets[c]; !taken {
				free = append(free, c)
			}
		}
	}
	if n > len(free) {
		return fmt.Errorf("place %d targets on %d free cells: %w", n, len(free), ErrInsufficientSpace)
	}
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	for _, c := range free[:n] {
		g.targets[c] = false
	}
	return nil
}

// AddTarget places a single unfound target at c. Placing onto a cell that
// already holds a target is an error.
func (g *Grid) AddTarget(c Cell) error {
	if !g.InBounds(c) {
		return fmt.Errorf("add target at (%d,%d): %w", c.X, c.Y, ErrOutOfBounds)
	}
	if _, taken := g.targets[c]; taken {
		return fmt.Errorf("add target at (%d,%d): cell already holds a target", c.X, c.Y)
	}
	g.targets[c] = false
	return nil
}

// Targets returns all targets with their found flags, row-major order.
func (g *Grid) Targets() []Target {
	out := make([]Target, 0, len(g.targets))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := Cell{X: x, Y: y}
			if found, ok := g.targets[c]; ok {
				out = append(out, Target{Cell: c, Found: found})
			}
		}
	}
	return out
}

// UnfoundTargetCount returns the number of targets not yet detected.
func (g *Grid) UnfoundTargetCount() int {
	n := 0
	for _, found := range g.targets {
		if !found {
			n++
		}
	}
	return n
}

// TargetAt reports whether a target exists at c and whether it was found.
func (g *Grid) TargetAt(c Cell) (found, ok bool) {
	found, ok = g.targets[c]
	return found, ok
}

// DroneIDs returns all tracked drone ids in registration order.
func (g *Grid) DroneIDs() []string {
	out := make([]string, len(g.droneOrder))
	copy(out, g.droneOrder)
	return out
}

func (g *Grid) removeOccupant(c Cell, id string) {
	ids := g.occupants[c]
	for i, occ := range ids {
		if occ == id {
			g.occupants[c] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(g.occupants[c]) == 0 {
		delete(g.occupants, c)
	}
}

func (g *Grid) emit(eventType string, payload map[string]any) {
	if g.bus == nil {
		return
	}
	g.bus.Emit(event.Event{Type: eventType, Payload: payload})
}
