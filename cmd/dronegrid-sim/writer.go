package main

import (
	"os"

	"dronegrid-sim/internal/config"
	"dronegrid-sim/internal/sim"
)

// newWriters sets up telemetry and event writers based on flags and env vars.
// It returns the writers and a cleanup function to close any resources. In
// TUI mode the returned writers may be nil: the TUI replaces stdout, so only
// GreptimeDB and the log file feed rows alongside it.
func newWriters(cfg *config.SimulationConfig, printOnly, tui bool, logFile string) (sim.TelemetryWriter, sim.EventWriter, func(), error) {
	cleanup := func() {}

	var writers []sim.TelemetryWriter
	var eventWriters []sim.EventWriter

	base, baseEvents, err := baseWriters(cfg, printOnly, tui)
	if err != nil {
		return nil, nil, nil, err
	}
	if base != nil {
		writers = append(writers, base)
		eventWriters = append(eventWriters, baseEvents)
	}
	if logFile != "" {
		fw, err := sim.NewFileWriter(logFile, logFile+".events")
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup = func() { fw.Close() }
		writers = append(writers, fw)
		eventWriters = append(eventWriters, fw)
	}

	switch len(writers) {
	case 0:
		return nil, nil, cleanup, nil
	case 1:
		return writers[0], eventWriters[0], cleanup, nil
	default:
		mw := sim.NewMultiWriter(writers, eventWriters)
		return mw, mw, cleanup, nil
	}
}

// baseWriters chooses the underlying writers based on the flags and env
// vars. Stdout is never an option in TUI mode because bubbletea owns the
// terminal there.
func baseWriters(cfg *config.SimulationConfig, printOnly, tui bool) (sim.TelemetryWriter, sim.EventWriter, error) {
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if printOnly || endpoint == "" {
		if tui {
			return nil, nil, nil
		}
		sw := sim.NewStdoutWriter(cfg, os.Getenv("NO_COLOR") == "")
		return sw, sw, nil
	}

	rowTable := os.Getenv("GREPTIMEDB_TABLE")
	eventTable := os.Getenv("SIM_EVENT_TABLE")
	w, err := sim.NewGreptimeWriter(endpoint, "public", rowTable, eventTable)
	if err != nil {
		return nil, nil, err
	}
	return w, w, nil
}

// newTelemetryWriter creates a telemetry writer without event handling, as
// used by replay.
func newTelemetryWriter(printOnly bool) (sim.TelemetryWriter, error) {
	w, _, _, err := newWriters(nil, printOnly, false, "")
	return w, err
}
