package models

import "time"

// TelemetryRecord is one persisted observation. Append-only: rows are never
// updated or deleted by this engine.
type TelemetryRecord struct {
	ID          int64     `json:"id"`
	RecordedAt  time.Time `json:"recorded_at"`
	Room        string    `json:"room"`
	DeviceTempC float64   `json:"device_temp_c"`
	SensorTempC *float64  `json:"sensor_temp_c,omitempty"`
	SetpointC   *float64  `json:"setpoint_c,omitempty"`
}

// WeeklyReport aggregates the trailing seven days of telemetry for one room.
type WeeklyReport struct {
	Room           string  `json:"room"`
	AvgDeviceTempC float64 `json:"avg_device_temp_c"`
	AvgSensorTempC float64 `json:"avg_sensor_temp_c"`
	AvgDeltaC      float64 `json:"avg_delta_c"` // sensor minus device, over rows where both exist
	SampleCount    int     `json:"sample_count"`
}
