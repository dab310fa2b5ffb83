// Simulator orchestrating drones, the grid environment, and event dispatch
package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"dronegrid-sim/internal/config"
	"dronegrid-sim/internal/event"
	"dronegrid-sim/internal/grid"
	"dronegrid-sim/internal/telemetry"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.DroneRow) error
}

// EventWriter handles emitted simulation events.
type EventWriter interface {
	WriteEvent(telemetry.EventRow) error
}

// Optional: writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.DroneRow) error
}

// Optional: event writers may support batch mode
type batchEventWriter interface {
	WriteEvents([]telemetry.EventRow) error
}

// Optional: writers can receive the full per-tick snapshot, e.g. for grid
// rendering.
type snapshotWriter interface {
	WriteSnapshot(telemetry.Snapshot) error
}

// MoveLeg is one already-parsed (direction, magnitude) command leg.
type MoveLeg struct {
	Direction grid.Direction
	Steps     int
}

// Simulator owns one simulation instance: grid, drones, event bus, and
// writers. All mutation happens under one mutex in tick order, so outcomes
// are reproducible for a fixed seed.
type Simulator struct {
	simID        string
	cfg          *config.SimulationConfig
	grid         *grid.Grid
	bus          *event.Bus
	drones       []*Drone
	droneIndex   map[string]*Drone
	registry     *Registry
	writer       TelemetryWriter
	eventWriter  EventWriter
	tickInterval time.Duration
	rng          *rand.Rand
	tickCount    int
	complete     bool
	lastSnapshot telemetry.Snapshot
	now          func() time.Time
	log          *slog.Logger
	mu           sync.Mutex
}

// NewSimulator builds the grid, scatters targets, and spawns the configured
// drones. Construction fails on invalid configuration or when targets do
// not fit the grid.
func NewSimulator(simID string, cfg *config.SimulationConfig, writer TelemetryWriter, eventWriter EventWriter, tickInterval time.Duration) (*Simulator, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	log := slog.Default()
	bus := event.NewBus(log)
	g, err := grid.New(cfg.Width, cfg.Height, cfg.StrictOccupancy, bus)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		simID:        simID,
		cfg:          cfg,
		grid:         g,
		bus:          bus,
		droneIndex:   make(map[string]*Drone),
		registry:     NewRegistry(),
		writer:       writer,
		eventWriter:  eventWriter,
		tickInterval: tickInterval,
		rng:          rand.New(rand.NewSource(seed)),
		now:          time.Now,
		log:          log,
	}

	if err := g.PlaceTargets(cfg.NumTargets, s.rng); err != nil {
		return nil, err
	}
	for i := 0; i < cfg.NumDrones; i++ {
		if _, err := s.spawnLocked(); err != nil {
			return nil, err
		}
	}

	bus.On(event.TypeSimulationComplete, func(event.Event) { s.complete = true })
	if cfg.ReactOnDetection {
		s.registerReactions()
	}

	// Seed the pre-tick snapshot so UI consumers see the swarm before the
	// clock starts.
	now := s.now().UTC()
	rows := make([]telemetry.DroneRow, 0, len(s.drones))
	for _, d := range s.drones {
		rows = append(rows, s.droneRow(d, nil, StatusPending, false, now))
	}
	s.lastSnapshot = s.buildSnapshot(rows, nil)
	return s, nil
}

// registerReactions wires the default detection reaction: the finding drone
// pauses briefly, then resumes exploring. This is the documented extension
// point for handlers scheduling behaviors.
func (s *Simulator) registerReactions() {
	s.bus.On(event.TypeTargetDetected, func(e event.Event) {
		id, _ := e.Payload["drone"].(string)
		d, ok := s.droneIndex[id]
		if !ok {
			return
		}
		if cancelled := d.SetBehavior(NewChain(NewWait(3), NewExplore())); cancelled != nil {
			s.emitBehaviorEvent(d, cancelled, StatusAborted)
		}
	})
}

// spawnLocked creates the next drone at a random cell. Strict occupancy
// requires a drone-free cell.
func (s *Simulator) spawnLocked() (string, error) {
	id := fmt.Sprintf("drone-%d", len(s.drones)+1)
	cell, err := s.randomSpawnCell()
	if err != nil {
		return "", err
	}
	if err := s.grid.AddDrone(id, cell); err != nil {
		return "", err
	}
	d := NewDrone(id, s.cfg.DetectionRange)
	s.drones = append(s.drones, d)
	s.droneIndex[id] = d
	s.bus.Emit(event.Event{Type: event.TypeDroneSpawned, Payload: map[string]any{
		"drone": id, "x": cell.X, "y": cell.Y,
	}})
	return id, nil
}

func (s *Simulator) randomSpawnCell() (grid.Cell, error) {
	if !s.cfg.StrictOccupancy {
		return grid.Cell{X: s.rng.Intn(s.cfg.Width), Y: s.rng.Intn(s.cfg.Height)}, nil
	}
	var free []grid.Cell
	for y := 0; y < s.cfg.Height; y++ {
		for x := 0; x < s.cfg.Width; x++ {
			c := grid.Cell{X: x, Y: y}
			if len(s.grid.DronesAt(c)) == 0 {
				free = append(free, c)
			}
		}
	}
	if len(free) == 0 {
		return grid.Cell{}, fmt.Errorf("spawn drone: %w", grid.ErrInsufficientSpace)
	}
	return free[s.rng.Intn(len(free))], nil
}

// SpawnDrone adds one drone at a random cell and returns its id.
func (s *Simulator) SpawnDrone() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawnLocked()
}

// Dispatch replaces a drone's behavior queue with b. A previously active
// behavior is force-aborted and reported as such.
func (s *Simulator) Dispatch(droneID string, b Behavior) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.droneIndex[droneID]
	if !ok {
		return fmt.Errorf("dispatch to %s: %w", droneID, grid.ErrUnknownDrone)
	}
	if cancelled := d.SetBehavior(b); cancelled != nil {
		s.emitBehaviorEvent(d, cancelled, StatusAborted)
	}
	return nil
}

// QueueBehavior appends b to a drone's behavior queue without cancelling
// anything.
func (s *Simulator) QueueBehavior(droneID string, b Behavior) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.droneIndex[droneID]
	if !ok {
		return fmt.Errorf("queue for %s: %w", droneID, grid.ErrUnknownDrone)
	}
	d.PushBehavior(b)
	return nil
}

// DispatchLegs turns an ordered list of (direction, magnitude) legs into a
// single chained unit of work, as produced by the command grammar's
// and-joins.
func (s *Simulator) DispatchLegs(droneID string, legs []MoveLeg) error {
	subs := make([]Behavior, 0, len(legs))
	for _, leg := range legs {
		ms := NewMoveSteps(leg.Direction, leg.Steps)
		ms.RetryLimit = s.cfg.MoveRetryLimit
		subs = append(subs, ms)
	}
	return s.Dispatch(droneID, NewChain(subs...))
}

// StopDrone cancels all behaviors of a drone.
func (s *Simulator) StopDrone(droneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.droneIndex[droneID]
	if !ok {
		return fmt.Errorf("stop %s: %w", droneID, grid.ErrUnknownDrone)
	}
	if cancelled := d.ClearBehaviors(); cancelled != nil {
		s.emitBehaviorEvent(d, cancelled, StatusAborted)
	}
	return nil
}

// NewBehavior instantiates a behavior kind from the registry.
func (s *Simulator) NewBehavior(kind string, params map[string]any) (Behavior, error) {
	return s.registry.New(kind, params)
}

// Registry exposes the behavior registry for custom kind registration.
func (s *Simulator) Registry() *Registry {
	return s.registry
}

// On registers an event handler on the simulation's bus.
func (s *Simulator) On(eventType string, h event.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus.On(eventType, h)
}

// DroneIDs returns all drone ids in their stable processing order.
func (s *Simulator) DroneIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.drones))
	for i, d := range s.drones {
		ids[i] = d.ID
	}
	return ids
}

// Snapshot returns the read-only view of the last processed tick.
func (s *Simulator) Snapshot() telemetry.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSnapshot
}

// Tick returns the number of processed ticks.
func (s *Simulator) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickCount
}

// Complete reports whether every target has been found.
func (s *Simulator) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

// Config returns the simulation configuration.
func (s *Simulator) Config() *config.SimulationConfig {
	return s.cfg
}

func (s *Simulator) emitBehaviorEvent(d *Drone, b Behavior, st Status) {
	var eventType string
	switch st {
	case StatusCompleted:
		eventType = event.TypeBehaviorCompleted
	case StatusStalled:
		eventType = event.TypeBehaviorStalled
	default:
		eventType = event.TypeBehaviorAborted
	}
	s.bus.Emit(event.Event{Type: eventType, Payload: map[string]any{
		"drone": d.ID, "behavior": b.Kind(),
	}})
}
