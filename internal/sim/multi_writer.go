package sim

import (
	"dronegrid-sim/internal/telemetry"
)

// MultiWriter fan-outs drone rows and events to multiple writers.
type MultiWriter struct {
	rowWriters   []TelemetryWriter
	eventWriters []EventWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(rws []TelemetryWriter, ews []EventWriter) *MultiWriter {
	return &MultiWriter{rowWriters: rws, eventWriters: ews}
}

// Write sends a drone row to all writers.
func (mw *MultiWriter) Write(row telemetry.DroneRow) error {
	for _, w := range mw.rowWriters {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple drone rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.DroneRow) error {
	for _, w := range mw.rowWriters {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				return err
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteEvent sends an event row to all event writers.
func (mw *MultiWriter) WriteEvent(e telemetry.EventRow) error {
	for _, w := range mw.eventWriters {
		if err := w.WriteEvent(e); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvents sends multiple events to all event writers, using batch if supported.
func (mw *MultiWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, w := range mw.eventWriters {
		if bw, ok := w.(batchEventWriter); ok {
			if err := bw.WriteEvents(rows); err != nil {
				return err
			}
			continue
		}
		for _, e := range rows {
			if err := w.WriteEvent(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteSnapshot forwards the per-tick snapshot to any writer that accepts one.
func (mw *MultiWriter) WriteSnapshot(snap telemetry.Snapshot) error {
	for _, w := range mw.rowWriters {
		if sw, ok := w.(snapshotWriter); ok {
			if err := sw.WriteSnapshot(snap); err != nil {
				return err
			}
		}
	}
	return nil
}
