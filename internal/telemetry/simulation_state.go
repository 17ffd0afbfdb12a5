package telemetry

import "time"

// Run status values.
const (
	RunCompleted = "completed"
	RunAborted   = "aborted"
)

// RunRow captures metadata for one simulation run.
type RunRow struct {
	RunID     string    `json:"run_id"`
	Maneuver  string    `json:"maneuver"`
	Mode      string    `json:"mode"`
	Duration  float64   `json:"duration"`
	Timestep  float64   `json:"timestep"`
	Gravity   float64   `json:"gravity"`
	Samples   int       `json:"samples"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"ts"`
	Constants
}
