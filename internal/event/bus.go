// Synchronous event bus connecting sensing to reaction within one tick.
package event

import (
	"log/slog"

	"github.com/google/uuid"
)

// Event types emitted by the simulation core.
const (
	TypeMoveCompleted      = "move_completed"
	TypeMovementBlocked    = "movement_blocked"
	TypeCollision          = "collision"
	TypeTargetDetected     = "target_detected"
	TypeScanCompleted      = "scan_completed"
	TypeBehaviorCompleted  = "behavior_completed"
	TypeBehaviorAborted    = "behavior_aborted"
	TypeBehaviorStalled    = "behavior_stalled"
	TypeDroneSpawned       = "drone_spawned"
	TypeSimulationComplete = "simulation_complete"
)

// Event is an immutable record of something that happened during a tick.
type Event struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Tick    int            `json:"tick"`
	Payload map[string]any `json:"payload"`
}

// Handler consumes a dispatched event. Handlers run synchronously on the
// tick goroutine and may schedule new behaviors on drones.
type Handler func(Event)

// Bus dispatches events to registered handlers in registration order.
// Each simulation instance owns its own Bus; registrations persist for the
// lifetime of the simulation.
type Bus struct {
	handlers map[string][]Handler
	tick     int
	emitted  []Event
	log      *slog.Logger
}

// NewBus creates an empty bus. A nil logger falls back to slog.Default().
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{handlers: make(map[string][]Handler), log: log}
}

// On registers a handler for an event type. Handlers are never removed.
func (b *Bus) On(eventType string, h Handler) {
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Advance sets the tick new events are stamped with. The buffer is kept, so
// events emitted between ticks still reach the next Drain.
func (b *Bus) Advance(tick int) {
	b.tick = tick
}

// Tick returns the tick number events are currently stamped with.
func (b *Bus) Tick() int {
	return b.tick
}

// Emit stamps the event with the current tick and delivers it to every
// handler registered for its type before returning. A panicking handler is
// recovered and reported; dispatch continues with the remaining handlers.
func (b *Bus) Emit(e Event) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.Tick = b.tick
	b.emitted = append(b.emitted, e)
	for _, h := range b.handlers[e.Type] {
		b.dispatch(h, e)
	}
}

func (b *Bus) dispatch(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler failed", "type", e.Type, "tick", e.Tick, "panic", r)
		}
	}()
	h(e)
}

// TickEvents returns a copy of all events emitted since the last Drain.
func (b *Bus) TickEvents() []Event {
	out := make([]Event, len(b.emitted))
	copy(out, b.emitted)
	return out
}

// Drain returns all buffered events and resets the buffer.
func (b *Bus) Drain() []Event {
	out := make([]Event, len(b.emitted))
	copy(out, b.emitted)
	b.emitted = b.emitted[:0]
	return out
}
