package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simulation.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfigValid(t *testing.T) {
	path := writeTempYAML(t, `
width: 8
height: 6
num_drones: 2
num_targets: 4
detection_range: 3
seed: 99
strict_occupancy: true
move_retry_limit: 2
react_on_detection: true
`)
	cfg, err := Load(path, "../../schemas/simulation.cue")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Width != 8 || cfg.Height != 6 {
		t.Errorf("grid = %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.NumDrones != 2 || cfg.NumTargets != 4 {
		t.Errorf("counts = %d drones, %d targets", cfg.NumDrones, cfg.NumTargets)
	}
	if !cfg.StrictOccupancy || !cfg.ReactOnDetection {
		t.Errorf("flags = %+v", cfg)
	}
	if cfg.Seed != 99 || cfg.MoveRetryLimit != 2 || cfg.DetectionRange != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeTempYAML(t, `
num_drones: 5
`)
	cfg, err := Load(path, "../../schemas/simulation.cue")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	def := Default()
	if cfg.Width != def.Width || cfg.Height != def.Height {
		t.Errorf("grid defaults not applied: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.NumDrones != 5 {
		t.Errorf("num_drones = %d", cfg.NumDrones)
	}
	if cfg.MoveRetryLimit != def.MoveRetryLimit {
		t.Errorf("move_retry_limit = %d", cfg.MoveRetryLimit)
	}
}

func TestLoadConfigSchemaViolation(t *testing.T) {
	path := writeTempYAML(t, `
width: -3
`)
	if _, err := Load(path, "../../schemas/simulation.cue"); err == nil {
		t.Fatal("negative width should fail CUE validation")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestValidateSemanticChecks(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SimulationConfig)
	}{
		{"zero width", func(c *SimulationConfig) { c.Width = 0 }},
		{"negative drones", func(c *SimulationConfig) { c.NumDrones = -1 }},
		{"negative targets", func(c *SimulationConfig) { c.NumTargets = -1 }},
		{"targets exceed capacity", func(c *SimulationConfig) { c.Width, c.Height, c.NumTargets = 2, 2, 5 }},
		{"negative detection range", func(c *SimulationConfig) { c.DetectionRange = -1 }},
		{"negative retry limit", func(c *SimulationConfig) { c.MoveRetryLimit = -1 }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() should fail", tc.name)
		}
	}

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}
