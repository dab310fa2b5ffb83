package grid

import (
	"errors"
	"math/rand"
	"testing"

	"dronegrid-sim/internal/event"
)

func eventTypes(evs []event.Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}

func TestNewRejectsEmptyBounds(t *testing.T) {
	for _, dims := range [][2]int{{0, 5}, {5, 0}, {-1, 5}} {
		if _, err := New(dims[0], dims[1], false, nil); err == nil {
			t.Errorf("New(%d,%d) should fail", dims[0], dims[1])
		}
	}
}

func TestDirectionDelta(t *testing.T) {
	cases := []struct {
		dir    Direction
		dx, dy int
	}{
		{DirUp, 0, -1},
		{DirDown, 0, 1},
		{DirLeft, -1, 0},
		{DirRight, 1, 0},
	}
	for _, tc := range cases {
		dx, dy, ok := tc.dir.Delta()
		if !ok || dx != tc.dx || dy != tc.dy {
			t.Errorf("%s delta = (%d,%d), want (%d,%d)", tc.dir, dx, dy, tc.dx, tc.dy)
		}
	}
	if _, _, ok := Direction("diagonal").Delta(); ok {
		t.Error("invalid direction should not resolve")
	}
}

func TestMoveUpdatesOccupancy(t *testing.T) {
	bus := event.NewBus(nil)
	g, err := New(5, 5, false, bus)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.AddDrone("drone-1", Cell{X: 2, Y: 2}); err != nil {
		t.Fatal(err)
	}

	res := g.Move("drone-1", DirUp)
	if res.Err != nil {
		t.Fatalf("move: %v", res.Err)
	}
	if res.To != (Cell{X: 2, Y: 1}) {
		t.Errorf("up should decrease Y, got %+v", res.To)
	}
	if pos, _ := g.PositionOf("drone-1"); pos != res.To {
		t.Errorf("position = %+v", pos)
	}
	if ids := g.DronesAt(Cell{X: 2, Y: 2}); len(ids) != 0 {
		t.Errorf("old cell should be empty, has %v", ids)
	}
	if got := eventTypes(bus.TickEvents()); len(got) != 1 || got[0] != event.TypeMoveCompleted {
		t.Errorf("events = %v", got)
	}
}

func TestMoveOutOfBounds(t *testing.T) {
	bus := event.NewBus(nil)
	g, _ := New(3, 3, false, bus)
	g.AddDrone("drone-1", Cell{X: 0, Y: 0})

	res := g.Move("drone-1", DirUp)
	if !errors.Is(res.Err, ErrOutOfBounds) {
		t.Fatalf("err = %v", res.Err)
	}
	if pos, _ := g.PositionOf("drone-1"); pos != (Cell{X: 0, Y: 0}) {
		t.Errorf("failed move must not change position, got %+v", pos)
	}
	if got := eventTypes(bus.TickEvents()); len(got) != 1 || got[0] != event.TypeMovementBlocked {
		t.Errorf("events = %v", got)
	}
}

func TestMoveUnknownDrone(t *testing.T) {
	g, _ := New(3, 3, false, nil)
	res := g.Move("ghost", DirUp)
	if !errors.Is(res.Err, ErrUnknownDrone) {
		t.Fatalf("err = %v", res.Err)
	}
}

func TestSharedCellCollision(t *testing.T) {
	bus := event.NewBus(nil)
	g, _ := New(5, 5, false, bus)
	g.AddDrone("drone-1", Cell{X: 1, Y: 1})
	g.AddDrone("drone-2", Cell{X: 2, Y: 1})

	res := g.Move("drone-2", DirLeft)
	if res.Err != nil {
		t.Fatalf("shared cells are allowed by default: %v", res.Err)
	}
	ids := g.DronesAt(Cell{X: 1, Y: 1})
	if len(ids) != 2 {
		t.Fatalf("cell should hold both drones, has %v", ids)
	}

	var collision *event.Event
	for _, e := range bus.TickEvents() {
		if e.Type == event.TypeCollision {
			e := e
			collision = &e
		}
	}
	if collision == nil {
		t.Fatal("expected a collision event")
	}
	if collision.Payload["drone"] != "drone-2" {
		t.Errorf("collision payload = %v", collision.Payload)
	}
	others, _ := collision.Payload["others"].([]string)
	if len(others) != 1 || others[0] != "drone-1" {
		t.Errorf("others = %v", others)
	}
}

func TestStrictOccupancyBlocks(t *testing.T) {
	bus := event.NewBus(nil)
	g, _ := New(5, 5, true, bus)
	g.AddDrone("drone-1", Cell{X: 1, Y: 1})
	g.AddDrone("drone-2", Cell{X: 2, Y: 1})

	res := g.Move("drone-2", DirLeft)
	if !errors.Is(res.Err, ErrBlocked) {
		t.Fatalf("err = %v", res.Err)
	}
	if pos, _ := g.PositionOf("drone-2"); pos != (Cell{X: 2, Y: 1}) {
		t.Errorf("blocked move must not change position, got %+v", pos)
	}
	for _, e := range bus.TickEvents() {
		if e.Type == event.TypeCollision {
			t.Error("strict mode must not emit collision events")
		}
	}
}

func TestScanChebyshevRange(t *testing.T) {
	g, _ := New(10, 10, false, event.NewBus(nil))
	g.AddDrone("drone-1", Cell{X: 5, Y: 5})
	// Corner of the range-2 square is within Chebyshev distance 2 but
	// Euclidean distance ~2.83.
	g.targets[Cell{X: 7, Y: 7}] = false
	g.targets[Cell{X: 8, Y: 5}] = false

	res, err := g.Scan("drone-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Found) != 1 || res.Found[0] != (Cell{X: 7, Y: 7}) {
		t.Fatalf("found = %v", res.Found)
	}
	if found, ok := g.TargetAt(Cell{X: 8, Y: 5}); !ok || found {
		t.Error("target at distance 3 must stay unfound")
	}
}

func TestScanIsIdempotent(t *testing.T) {
	bus := event.NewBus(nil)
	g, _ := New(5, 5, false, bus)
	g.AddDrone("drone-1", Cell{X: 2, Y: 2})
	g.AddDrone("drone-2", Cell{X: 2, Y: 3})
	g.targets[Cell{X: 2, Y: 2}] = false
	g.targets[Cell{X: 0, Y: 0}] = false

	res1, _ := g.Scan("drone-1", 1)
	if len(res1.Found) != 1 {
		t.Fatalf("first scan found = %v", res1.Found)
	}
	res2, _ := g.Scan("drone-2", 1)
	if len(res2.Found) != 0 {
		t.Fatalf("second scan must find nothing new, found = %v", res2.Found)
	}

	detected := 0
	for _, e := range bus.TickEvents() {
		if e.Type == event.TypeTargetDetected {
			detected++
		}
	}
	if detected != 1 {
		t.Errorf("target_detected emitted %d times, want 1", detected)
	}
}

func TestScanEmitsSimulationComplete(t *testing.T) {
	bus := event.NewBus(nil)
	g, _ := New(5, 5, false, bus)
	g.AddDrone("drone-1", Cell{X: 2, Y: 2})
	g.targets[Cell{X: 2, Y: 2}] = false

	g.Scan("drone-1", 1)

	var complete bool
	for _, e := range bus.TickEvents() {
		if e.Type == event.TypeSimulationComplete {
			complete = true
		}
	}
	if !complete {
		t.Error("finding the last target should emit simulation_complete")
	}
	if g.UnfoundTargetCount() != 0 {
		t.Errorf("unfound = %d", g.UnfoundTargetCount())
	}
}

func TestPlaceTargets(t *testing.T) {
	g, _ := New(4, 3, false, nil)
	rng := rand.New(rand.NewSource(1))
	if err := g.PlaceTargets(5, rng); err != nil {
		t.Fatal(err)
	}
	if len(g.Targets()) != 5 {
		t.Fatalf("targets = %d", len(g.Targets()))
	}
	if g.UnfoundTargetCount() != 5 {
		t.Errorf("all placed targets start unfound")
	}

	if err := g.PlaceTargets(8, rng); !errors.Is(err, ErrInsufficientSpace) {
		t.Errorf("overfull placement err = %v", err)
	}
}

func TestPlaceTargetsDeterministic(t *testing.T) {
	layout := func(seed int64) []Target {
		g, _ := New(6, 6, false, nil)
		g.PlaceTargets(4, rand.New(rand.NewSource(seed)))
		return g.Targets()
	}
	a, b := layout(42), layout(42)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed should give same layout: %v vs %v", a, b)
		}
	}
}

func TestAddDroneRejectsDuplicateAndOOB(t *testing.T) {
	g, _ := New(3, 3, false, nil)
	if err := g.AddDrone("drone-1", Cell{X: 3, Y: 0}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("oob err = %v", err)
	}
	if err := g.AddDrone("drone-1", Cell{X: 1, Y: 1}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddDrone("drone-1", Cell{X: 2, Y: 2}); err == nil {
		t.Error("duplicate id should fail")
	}
}
