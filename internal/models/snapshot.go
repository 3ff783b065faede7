package models

import "time"

// Modes accepted by ApplyMode.
const (
	ModeHome = "HOME"
	ModeAway = "AWAY"
)

// ModeRequest is one user action. Constructed once, read-only afterwards.
type ModeRequest struct {
	Mode          string   `json:"mode"` // HOME | AWAY
	OverrideTempC *float64 `json:"override_temp_c,omitempty"`
}

// CommandResult is the per-device outcome of one dispatch. Failures are
// values here, not errors: one rejected device never aborts its siblings.
type CommandResult struct {
	DeviceURL    string  `json:"device_url"`
	Label        string  `json:"label"`
	AppliedTempC float64 `json:"applied_temp_c"`
	ModeToken    string  `json:"mode_token"`
	Sent         bool    `json:"sent"`
	Confirmed    bool    `json:"confirmed"`
	Error        string  `json:"error,omitempty"`
}

// RoomState is the reconciled view of a single room.
type RoomState struct {
	Room         string   `json:"room"`
	AmbientTempC *float64 `json:"ambient_temp_c,omitempty"` // nil when no sensor reading survived filtering
	SetpointC    *float64 `json:"setpoint_c,omitempty"`
	SensorTempC  *float64 `json:"sensor_temp_c,omitempty"` // independent external sensor, monitored room only
}

// StateSnapshot is one immutable reconciliation result. Every refresh builds
// a new snapshot; nothing mutates an existing one.
type StateSnapshot struct {
	TakenAt time.Time   `json:"taken_at"`
	Rooms   []RoomState `json:"rooms"`
}

// Room returns the state for the named room, if present.
func (s StateSnapshot) Room(name string) (RoomState, bool) {
	for _, r := range s.Rooms {
		if r.Room == name {
			return r, true
		}
	}
	return RoomState{}, false
}

// Terminal states of one mode-change operation.
const (
	OperationConverged = "CONVERGED"
	OperationPartial   = "PARTIAL_AFTER_RETRIES"
)

// OperationReport is the structured result of one ApplyMode call.
// PARTIAL_AFTER_RETRIES is a user-visible outcome, not an error.
type OperationReport struct {
	OperationID string          `json:"operation_id"`
	Mode        string          `json:"mode"`
	State       string          `json:"state"` // CONVERGED | PARTIAL_AFTER_RETRIES
	Devices     []CommandResult `json:"devices"`
	Snapshot    StateSnapshot   `json:"snapshot"`
}
