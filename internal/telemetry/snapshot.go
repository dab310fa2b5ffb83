package telemetry

// TargetState describes one target for UI consumers.
type TargetState struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Found bool `json:"found"`
}

// Snapshot is the read-only per-tick view handed to UI and log consumers:
// every drone's position and behavior state, every target with its found
// flag, and the events emitted during the tick.
type Snapshot struct {
	SimID   string        `json:"sim_id"`
	Tick    int           `json:"tick"`
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Drones  []DroneRow    `json:"drones"`
	Targets []TargetState `json:"targets"`
	Events  []EventRow    `json:"events"`
}
