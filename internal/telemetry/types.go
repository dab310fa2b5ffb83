// Telemetry structs with greptime tags
package telemetry

import (
	"os"
	"time"
)

// DroneRow represents one drone state record per tick.
type DroneRow struct {
	SimID     string    `json:"sim_id"`   // TAG
	DroneID   string    `json:"drone_id"` // TAG
	X         int       `json:"x"`        // FIELD
	Y         int       `json:"y"`        // FIELD
	Behavior  string    `json:"behavior"` // FIELD
	Status    string    `json:"status"`   // FIELD
	Tick      int       `json:"tick"`     // FIELD
	Timestamp time.Time `json:"ts"`       // TIME INDEX
}

// EventRow represents one emitted simulation event.
type EventRow struct {
	SimID     string         `json:"sim_id"`             // TAG
	EventID   string         `json:"event_id"`           // FIELD
	Type      string         `json:"type"`               // TAG
	DroneID   string         `json:"drone_id,omitempty"` // FIELD
	Tick      int            `json:"tick"`               // FIELD
	Payload   map[string]any `json:"payload,omitempty"`  // FIELD (JSON)
	Timestamp time.Time      `json:"ts"`                 // TIME INDEX
}

// DroneTableName holds the table name used when writing drone state to
// GreptimeDB. It defaults to "drone_state" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var DroneTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "drone_state"
}()

// EventTableName holds the table name for emitted events, overridable via
// the SIM_EVENT_TABLE environment variable.
var EventTableName = func() string {
	if env := os.Getenv("SIM_EVENT_TABLE"); env != "" {
		return env
	}
	return "sim_events"
}()

func (DroneRow) TableName() string { return DroneTableName }

func (EventRow) TableName() string { return EventTableName }
