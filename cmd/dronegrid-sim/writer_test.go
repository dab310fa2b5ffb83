package main

import (
	"os"
	"path/filepath"
	"testing"

	"dronegrid-sim/internal/sim"
	"dronegrid-sim/internal/telemetry"
)

func TestNewWritersPrintOnly(t *testing.T) {
	tw, ew, cleanup, err := newWriters(nil, true, false, "")
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := tw.(*sim.StdoutWriter); !ok {
		t.Fatalf("expected *sim.StdoutWriter, got %T", tw)
	}
	if _, ok := ew.(*sim.StdoutWriter); !ok {
		t.Fatalf("expected *sim.StdoutWriter, got %T", ew)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	tw, _, cleanup, err := newWriters(nil, false, false, "")
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := tw.(*sim.StdoutWriter); !ok {
		t.Fatalf("expected *sim.StdoutWriter, got %T", tw)
	}
}

func TestNewWritersLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telemetry.log")

	tw, ew, cleanup, err := newWriters(nil, true, false, path)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := tw.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", tw)
	}
	if ew == nil {
		t.Fatal("event writer should not be nil")
	}

	if err := tw.Write(telemetry.DroneRow{SimID: "s", DroneID: "drone-1", Tick: 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file should contain the written row")
	}
	if _, err := os.Stat(path + ".events"); err != nil {
		t.Errorf("event log file missing: %v", err)
	}
}

func TestNewWritersTUISkipsStdout(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	tw, ew, cleanup, err := newWriters(nil, false, true, "")
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if tw != nil || ew != nil {
		t.Fatalf("TUI mode without DB or log file must yield no base writers, got %T / %T", tw, ew)
	}
}

func TestNewWritersTUIKeepsLogFileOnly(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "telemetry.log")

	tw, ew, cleanup, err := newWriters(nil, false, true, path)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := tw.(*sim.FileWriter); !ok {
		t.Fatalf("expected the file writer alone, got %T", tw)
	}
	if _, ok := ew.(*sim.FileWriter); !ok {
		t.Fatalf("expected the file writer alone, got %T", ew)
	}
}
