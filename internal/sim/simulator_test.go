package sim

import (
	"context"
	"errors"
	"testing"

	"dronegrid-sim/internal/config"
	"dronegrid-sim/internal/event"
	"dronegrid-sim/internal/grid"
	"dronegrid-sim/internal/telemetry"
)

// mockWriter records rows written one by one.
type mockWriter struct {
	rows []telemetry.DroneRow
}

func (m *mockWriter) Write(row telemetry.DroneRow) error {
	m.rows = append(m.rows, row)
	return nil
}

// mockBatchWriter records batch writes and snapshots.
type mockBatchWriter struct {
	batches   [][]telemetry.DroneRow
	snapshots []telemetry.Snapshot
}

func (m *mockBatchWriter) Write(telemetry.DroneRow) error { return nil }

func (m *mockBatchWriter) WriteBatch(rows []telemetry.DroneRow) error {
	m.batches = append(m.batches, rows)
	return nil
}

func (m *mockBatchWriter) WriteSnapshot(s telemetry.Snapshot) error {
	m.snapshots = append(m.snapshots, s)
	return nil
}

type mockEventWriter struct {
	events []telemetry.EventRow
}

func (m *mockEventWriter) WriteEvent(e telemetry.EventRow) error {
	m.events = append(m.events, e)
	return nil
}

func testConfig() *config.SimulationConfig {
	return &config.SimulationConfig{
		Width:          5,
		Height:         5,
		NumDrones:      2,
		NumTargets:     1,
		DetectionRange: 2,
		Seed:           42,
		MoveRetryLimit: 1,
	}
}

func TestNewSimulatorSpawnsConfiguredSwarm(t *testing.T) {
	s, err := NewSimulator("test-sim", testConfig(), nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	ids := s.DroneIDs()
	if len(ids) != 2 || ids[0] != "drone-1" || ids[1] != "drone-2" {
		t.Fatalf("ids = %v", ids)
	}
	snap := s.Snapshot()
	if len(snap.Targets) != 1 {
		t.Fatalf("targets = %v", snap.Targets)
	}
	if s.Complete() {
		t.Error("fresh simulation must not be complete")
	}
}

func TestNewSimulatorRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Width = 0
	if _, err := NewSimulator("test-sim", cfg, nil, nil, 0); err == nil {
		t.Fatal("invalid config should fail")
	}
}

func TestStepWritesRowsAndEvents(t *testing.T) {
	w := &mockWriter{}
	ew := &mockEventWriter{}
	s, err := NewSimulator("test-sim", testConfig(), w, ew, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Dispatch("drone-1", NewWait(1)); err != nil {
		t.Fatal(err)
	}

	s.Step(context.Background())

	if len(w.rows) != 2 {
		t.Fatalf("rows = %d, want one per drone", len(w.rows))
	}
	if w.rows[0].DroneID != "drone-1" || w.rows[1].DroneID != "drone-2" {
		t.Errorf("row order = %s, %s", w.rows[0].DroneID, w.rows[1].DroneID)
	}
	if w.rows[0].Tick != 1 || w.rows[0].SimID != "test-sim" {
		t.Errorf("row = %+v", w.rows[0])
	}
	if w.rows[0].Status != "completed" || w.rows[0].Behavior != "wait" {
		t.Errorf("acting drone row = %+v", w.rows[0])
	}
	if w.rows[1].Status != "idle" {
		t.Errorf("idle drone row = %+v", w.rows[1])
	}

	var sawBehaviorEvent bool
	for _, e := range ew.events {
		if e.Type == event.TypeBehaviorCompleted && e.DroneID == "drone-1" {
			sawBehaviorEvent = true
		}
	}
	if !sawBehaviorEvent {
		t.Errorf("expected behavior_completed for drone-1, events = %+v", ew.events)
	}
}

func TestStepPrefersBatchAndSnapshotInterfaces(t *testing.T) {
	w := &mockBatchWriter{}
	s, err := NewSimulator("test-sim", testConfig(), w, nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	s.Step(context.Background())
	s.Step(context.Background())

	if len(w.batches) != 2 || len(w.batches[0]) != 2 {
		t.Fatalf("batches = %v", w.batches)
	}
	if len(w.snapshots) != 2 || w.snapshots[1].Tick != 2 {
		t.Fatalf("snapshots = %d", len(w.snapshots))
	}
}

func TestSimulationIsDeterministicForFixedSeed(t *testing.T) {
	run := func() []telemetry.Snapshot {
		s, err := NewSimulator("det", testConfig(), nil, nil, 0)
		if err != nil {
			t.Fatal(err)
		}
		for _, id := range s.DroneIDs() {
			b, err := s.NewBehavior("explore", nil)
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Dispatch(id, b); err != nil {
				t.Fatal(err)
			}
		}
		var snaps []telemetry.Snapshot
		for i := 0; i < 30 && !s.Complete(); i++ {
			s.Step(context.Background())
			snaps = append(snaps, s.Snapshot())
		}
		return snaps
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		for j := range a[i].Drones {
			ra, rb := a[i].Drones[j], b[i].Drones[j]
			if ra.X != rb.X || ra.Y != rb.Y || ra.Status != rb.Status {
				t.Fatalf("tick %d drone %s diverged: %+v vs %+v", i+1, ra.DroneID, ra, rb)
			}
		}
	}
}

func TestExploreRunCompletes(t *testing.T) {
	s, err := NewSimulator("run", testConfig(), nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range s.DroneIDs() {
		if err := s.Dispatch(id, NewExplore()); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 100 && !s.Complete(); i++ {
		s.Step(context.Background())
	}
	if !s.Complete() {
		t.Fatal("exploring a 5x5 grid should find the target well within 100 ticks")
	}
}

func TestDispatchLegsQueuesOneChain(t *testing.T) {
	s, err := NewSimulator("legs", testConfig(), nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	err = s.DispatchLegs("drone-1", []MoveLeg{
		{Direction: grid.DirUp, Steps: 2},
		{Direction: grid.DirRight, Steps: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	d := s.droneIndex["drone-1"]
	if d.PendingBehaviors() != 1 {
		t.Fatalf("legs must form a single chained unit, pending = %d", d.PendingBehaviors())
	}
	if d.ActiveBehavior().Kind() != "chain" {
		t.Errorf("active = %s", d.ActiveBehavior().Kind())
	}
}

func TestDispatchToUnknownDrone(t *testing.T) {
	s, err := NewSimulator("unknown", testConfig(), nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Dispatch("drone-99", NewWait(1)); !errors.Is(err, grid.ErrUnknownDrone) {
		t.Errorf("Dispatch err = %v", err)
	}
	if err := s.StopDrone("drone-99"); !errors.Is(err, grid.ErrUnknownDrone) {
		t.Errorf("StopDrone err = %v", err)
	}
	if err := s.QueueBehavior("drone-99", NewWait(1)); !errors.Is(err, grid.ErrUnknownDrone) {
		t.Errorf("QueueBehavior err = %v", err)
	}
}

func TestStopDroneEmitsAbort(t *testing.T) {
	ew := &mockEventWriter{}
	s, err := NewSimulator("stop", testConfig(), nil, ew, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Dispatch("drone-1", NewMoveSteps(grid.DirUp, 5)); err != nil {
		t.Fatal(err)
	}
	s.Step(context.Background())
	if err := s.StopDrone("drone-1"); err != nil {
		t.Fatal(err)
	}

	s.Step(context.Background())
	for _, e := range ew.events {
		if e.Type == event.TypeBehaviorAborted && e.DroneID == "drone-1" {
			return
		}
	}
	t.Fatalf("expected behavior_aborted event, got %+v", ew.events)
}

func TestSpawnDroneMidSimulation(t *testing.T) {
	s, err := NewSimulator("spawn", testConfig(), nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.SpawnDrone()
	if err != nil {
		t.Fatal(err)
	}
	if id != "drone-3" {
		t.Errorf("id = %s", id)
	}
	ids := s.DroneIDs()
	if len(ids) != 3 || ids[2] != "drone-3" {
		t.Errorf("ids = %v", ids)
	}
}

func TestReactionOnDetectionSchedulesPauseThenExplore(t *testing.T) {
	cfg := testConfig()
	cfg.ReactOnDetection = true
	s, err := NewSimulator("react", cfg, nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Dispatch("drone-1", NewMoveSteps(grid.DirUp, 5)); err != nil {
		t.Fatal(err)
	}

	// Simulate the sensing path directly: a target_detected event for
	// drone-1 must replace its plan with wait-then-explore.
	s.Bus().Emit(event.Event{
		Type:    event.TypeTargetDetected,
		Payload: map[string]any{"drone": "drone-1"},
	})

	d := s.droneIndex["drone-1"]
	chain, ok := d.ActiveBehavior().(*Chain)
	if !ok {
		t.Fatalf("active = %T", d.ActiveBehavior())
	}
	if chain.Active().Kind() != "wait" {
		t.Errorf("reaction should lead with a pause, got %s", chain.Active().Kind())
	}

	// The forced cancellation of the move plan is reported like any other
	// external override.
	var aborted int
	for _, e := range s.Bus().Drain() {
		if e.Type == event.TypeBehaviorAborted && e.Payload["behavior"] == "move_steps" {
			aborted++
		}
	}
	if aborted != 1 {
		t.Errorf("abort events for the cancelled plan = %d", aborted)
	}
}

func TestHandlersSeeEventsFromSameTick(t *testing.T) {
	s, err := NewSimulator("order", testConfig(), nil, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	s.On(event.TypeMoveCompleted, func(event.Event) { order = append(order, "first") })
	s.On(event.TypeMoveCompleted, func(event.Event) { order = append(order, "second") })

	// Pick a move that cannot leave the grid regardless of spawn position.
	d := s.droneIndex["drone-1"]
	pos, _ := s.grid.PositionOf("drone-1")
	dir := grid.DirDown
	if pos.Y >= s.cfg.Height-1 {
		dir = grid.DirUp
	}
	d.SetBehavior(NewMoveSteps(dir, 1))

	s.Step(context.Background())

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("handler order = %v", order)
	}
}
