package sim

import (
	"context"
	"log/slog"
	"time"

	"dronegrid-sim/internal/event"
	"dronegrid-sim/internal/logging"
	"dronegrid-sim/internal/telemetry"
)

// Run starts the simulation loop and stops when the context is done or when
// every target has been found.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.WithSim(logging.FromContext(ctx), s.simID)
	log.Info("starting simulator", "tick_interval", s.tickInterval)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Step(ctx)
			if s.Complete() {
				log.Info("all targets found", "ticks", s.Tick())
				return
			}
		case <-ctx.Done():
			log.Info("stopping simulator")
			return
		}
	}
}

// Step processes one tick: every drone acts at most once, in stable id
// order, with events dispatched synchronously before the next drone runs.
// The resulting rows and events go to the configured writers.
func (s *Simulator) Step(ctx context.Context) {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	s.tickCount++
	s.bus.Advance(s.tickCount)
	now := s.now().UTC()

	rows := make([]telemetry.DroneRow, 0, len(s.drones))
	for _, d := range s.drones {
		b, st, acted := d.Step(s.grid)
		if acted && st.Terminal() {
			s.emitBehaviorEvent(d, b, st)
		}
		rows = append(rows, s.droneRow(d, b, st, acted, now))
	}
	events := s.eventRows(now)
	s.lastSnapshot = s.buildSnapshot(rows, events)
	snapshot := s.lastSnapshot
	s.mu.Unlock()

	s.writeOut(log, rows, events, snapshot)
}

func (s *Simulator) droneRow(d *Drone, b Behavior, st Status, acted bool, now time.Time) telemetry.DroneRow {
	row := telemetry.DroneRow{
		SimID:     s.simID,
		DroneID:   d.ID,
		Status:    "idle",
		Tick:      s.tickCount,
		Timestamp: now,
	}
	if pos, ok := s.grid.PositionOf(d.ID); ok {
		row.X, row.Y = pos.X, pos.Y
	}
	if acted {
		row.Behavior = b.Kind()
		row.Status = st.String()
	}
	return row
}

func (s *Simulator) eventRows(now time.Time) []telemetry.EventRow {
	emitted := s.bus.Drain()
	rows := make([]telemetry.EventRow, 0, len(emitted))
	for _, e := range emitted {
		row := telemetry.EventRow{
			SimID:     s.simID,
			EventID:   e.ID,
			Type:      e.Type,
			Tick:      e.Tick,
			Payload:   e.Payload,
			Timestamp: now,
		}
		if id, ok := e.Payload["drone"].(string); ok {
			row.DroneID = id
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Simulator) buildSnapshot(rows []telemetry.DroneRow, events []telemetry.EventRow) telemetry.Snapshot {
	targets := s.grid.Targets()
	ts := make([]telemetry.TargetState, len(targets))
	for i, t := range targets {
		ts[i] = telemetry.TargetState{X: t.Cell.X, Y: t.Cell.Y, Found: t.Found}
	}
	return telemetry.Snapshot{
		SimID:   s.simID,
		Tick:    s.tickCount,
		Width:   s.grid.Width(),
		Height:  s.grid.Height(),
		Drones:  rows,
		Targets: ts,
		Events:  events,
	}
}

func (s *Simulator) writeOut(log *slog.Logger, rows []telemetry.DroneRow, events []telemetry.EventRow, snapshot telemetry.Snapshot) {
	if s.writer != nil {
		// Batch support if writer implements WriteBatch
		if bw, ok := s.writer.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				log.Error("batch write failed", "err", err)
			}
		} else {
			for _, row := range rows {
				if err := s.writer.Write(row); err != nil {
					log.Error("write failed", "drone_id", row.DroneID, "err", err)
				}
			}
		}
		if sw, ok := s.writer.(snapshotWriter); ok {
			if err := sw.WriteSnapshot(snapshot); err != nil {
				log.Error("snapshot write failed", "err", err)
			}
		}
	}

	if len(events) > 0 && s.eventWriter != nil {
		if bw, ok := s.eventWriter.(batchEventWriter); ok {
			if err := bw.WriteEvents(events); err != nil {
				log.Error("event batch write failed", "err", err)
			}
		} else {
			for _, e := range events {
				if err := s.eventWriter.WriteEvent(e); err != nil {
					log.Error("event write failed", "err", err)
				}
			}
		}
	}
}

// Bus returns the simulation's event bus, mainly for tests and embedding
// callers that register handlers before the first tick.
func (s *Simulator) Bus() *event.Bus {
	return s.bus
}
