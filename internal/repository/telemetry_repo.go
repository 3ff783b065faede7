package repository

import (
	"context"
	"database/sql"
	"time"

	"heating_bridge/internal/models"
)

type TelemetrySQLite struct {
	db *sql.DB
}

func NewTelemetrySQLite(db *sql.DB) *TelemetrySQLite {
	return &TelemetrySQLite{db: db}
}

const (
	insertTelemetrySQL = `
		INSERT INTO telemetry (recorded_at, room, device_temp_c, sensor_temp_c, setpoint_c)
		VALUES (?, ?, ?, ?, ?)
	`

	// Delta is averaged only over rows carrying a sensor reading; the device
	// average spans every row so sparse sensor coverage does not skew it.
	weeklyAveragesSQL = `
		SELECT
			COUNT(*),
			COALESCE(AVG(device_temp_c), 0),
			COALESCE(AVG(sensor_temp_c), 0),
			COALESCE(AVG(CASE WHEN sensor_temp_c IS NOT NULL THEN sensor_temp_c - device_temp_c END), 0)
		FROM telemetry
		WHERE room = ? AND recorded_at >= ?
	`
)

// Append inserts one observation row. Rows are immutable once written.
func (r *TelemetrySQLite) Append(ctx context.Context, rec models.TelemetryRecord) error {
	ts := rec.RecordedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertTelemetrySQL,
		ts.Format("2006-01-02 15:04:05"),
		rec.Room,
		rec.DeviceTempC,
		rec.SensorTempC,
		rec.SetpointC,
	)
	return err
}

// WeeklyAverages runs the time-windowed aggregate for one room.
func (r *TelemetrySQLite) WeeklyAverages(ctx context.Context, room string, since time.Time) (models.WeeklyReport, error) {
	row := r.db.QueryRowContext(ctx, weeklyAveragesSQL, room, since.UTC().Format("2006-01-02 15:04:05"))

	rep := models.WeeklyReport{Room: room}
	if err := row.Scan(&rep.SampleCount, &rep.AvgDeviceTempC, &rep.AvgSensorTempC, &rep.AvgDeltaC); err != nil {
		return models.WeeklyReport{}, err
	}
	return rep, nil
}
