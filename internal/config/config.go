// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SimulationConfig is the root configuration for one simulation instance.
type SimulationConfig struct {
	Width            int   `yaml:"width"`
	Height           int   `yaml:"height"`
	NumDrones        int   `yaml:"num_drones"`
	NumTargets       int   `yaml:"num_targets"`
	DetectionRange   int   `yaml:"detection_range"`
	Seed             int64 `yaml:"seed"`
	StrictOccupancy  bool  `yaml:"strict_occupancy"`
	MoveRetryLimit   int   `yaml:"move_retry_limit"`
	ReactOnDetection bool  `yaml:"react_on_detection"`
}

// Default returns the configuration used when a field is omitted. The grid
// and entity counts match the simulator's historical defaults.
func Default() SimulationConfig {
	return SimulationConfig{
		Width:          20,
		Height:         15,
		NumDrones:      3,
		NumTargets:     3,
		DetectionRange: 2,
		MoveRetryLimit: 1,
	}
}

// Load loads YAML config, validates it against a CUE schema, and applies
// semantic checks. An empty cueSchemaPath skips schema validation.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the simulator cannot start with.
func (c *SimulationConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("grid bounds must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.NumDrones < 0 {
		return fmt.Errorf("num_drones must be >= 0, got %d", c.NumDrones)
	}
	if c.NumTargets < 0 {
		return fmt.Errorf("num_targets must be >= 0, got %d", c.NumTargets)
	}
	if c.NumTargets > c.Width*c.Height {
		return fmt.Errorf("num_targets %d exceeds grid capacity %d", c.NumTargets, c.Width*c.Height)
	}
	if c.DetectionRange < 0 {
		return fmt.Errorf("detection_range must be >= 0, got %d", c.DetectionRange)
	}
	if c.MoveRetryLimit < 0 {
		return fmt.Errorf("move_retry_limit must be >= 0, got %d", c.MoveRetryLimit)
	}
	return nil
}
