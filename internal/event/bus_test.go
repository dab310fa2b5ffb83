package event

import "testing"

func TestEmitDispatchesInRegistrationOrder(t *testing.T) {
	b := NewBus(nil)
	var order []int
	b.On(TypeMoveCompleted, func(Event) { order = append(order, 1) })
	b.On(TypeMoveCompleted, func(Event) { order = append(order, 2) })
	b.On(TypeMoveCompleted, func(Event) { order = append(order, 3) })

	b.Emit(Event{Type: TypeMoveCompleted})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("handler order = %v", order)
	}
}

func TestEmitStampsTickAndID(t *testing.T) {
	b := NewBus(nil)
	var got Event
	b.On(TypeScanCompleted, func(e Event) { got = e })

	b.Advance(7)
	b.Emit(Event{Type: TypeScanCompleted, Payload: map[string]any{"drone": "drone-1"}})

	if got.Tick != 7 {
		t.Errorf("tick = %d, want 7", got.Tick)
	}
	if got.ID == "" {
		t.Error("event should receive an id")
	}
	if got.Payload["drone"] != "drone-1" {
		t.Errorf("payload = %v", got.Payload)
	}
}

func TestPanickingHandlerDoesNotStopDispatch(t *testing.T) {
	b := NewBus(nil)
	var ran []string
	b.On(TypeCollision, func(Event) { ran = append(ran, "first") })
	b.On(TypeCollision, func(Event) { panic("boom") })
	b.On(TypeCollision, func(Event) { ran = append(ran, "third") })

	b.Emit(Event{Type: TypeCollision})

	if len(ran) != 2 || ran[0] != "first" || ran[1] != "third" {
		t.Fatalf("surviving handlers = %v", ran)
	}
}

func TestEmitWithoutHandlersIsNoop(t *testing.T) {
	b := NewBus(nil)
	b.Emit(Event{Type: TypeTargetDetected})
	if n := len(b.TickEvents()); n != 1 {
		t.Fatalf("event should still be recorded, got %d", n)
	}
}

func TestDrainEmptiesBufferButAdvanceDoesNot(t *testing.T) {
	b := NewBus(nil)
	b.Advance(1)
	b.Emit(Event{Type: TypeMoveCompleted})
	b.Emit(Event{Type: TypeScanCompleted})
	if n := len(b.Drain()); n != 2 {
		t.Fatalf("tick 1 events = %d", n)
	}
	if n := len(b.TickEvents()); n != 0 {
		t.Fatalf("buffer should be empty after Drain, got %d", n)
	}

	// Events emitted between ticks survive the tick boundary.
	b.Emit(Event{Type: TypeBehaviorAborted})
	b.Advance(2)
	b.Emit(Event{Type: TypeCollision})
	evs := b.Drain()
	if len(evs) != 2 || evs[0].Tick != 1 || evs[1].Tick != 2 {
		t.Fatalf("drained events = %v", evs)
	}
}

func TestHandlerEmittingEventRunsSynchronously(t *testing.T) {
	b := NewBus(nil)
	var seen []string
	b.On(TypeTargetDetected, func(Event) {
		seen = append(seen, "detected")
		b.Emit(Event{Type: TypeBehaviorAborted})
	})
	b.On(TypeBehaviorAborted, func(Event) { seen = append(seen, "aborted") })

	b.Emit(Event{Type: TypeTargetDetected})

	if len(seen) != 2 || seen[1] != "aborted" {
		t.Fatalf("nested dispatch order = %v", seen)
	}
	if n := len(b.TickEvents()); n != 2 {
		t.Errorf("both events should be buffered, got %d", n)
	}
}
