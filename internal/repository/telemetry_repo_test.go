package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"heating_bridge/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockTelemetryRepo(t *testing.T) (*TelemetrySQLite, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	repo := NewTelemetrySQLite(db)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return repo, mock, cleanup
}

func TestTelemetrySQLite_Append(t *testing.T) {
	sensor := 20.9
	setpoint := 19.5
	at := time.Date(2026, 1, 10, 12, 30, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name       string
		rec        models.TelemetryRecord
		mockExpect func(sqlmock.Sqlmock)
		wantErr    bool
	}{
		{
			name: "full row, timestamp normalized to UTC",
			rec: models.TelemetryRecord{
				RecordedAt:  at,
				Room:        "living_room",
				DeviceTempC: 20.4,
				SensorTempC: &sensor,
				SetpointC:   &setpoint,
			},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertTelemetrySQL)).
					WithArgs("2026-01-10 11:30:00", "living_room", 20.4, sensor, setpoint).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "nil optional readings",
			rec: models.TelemetryRecord{
				RecordedAt:  at,
				Room:        "bedroom",
				DeviceTempC: 18.7,
			},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertTelemetrySQL)).
					WithArgs("2026-01-10 11:30:00", "bedroom", 18.7, nil, nil).
					WillReturnResult(sqlmock.NewResult(2, 1))
			},
		},
		{
			name: "exec error",
			rec: models.TelemetryRecord{
				RecordedAt:  at,
				Room:        "office",
				DeviceTempC: 19.0,
			},
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta(insertTelemetrySQL)).
					WillReturnError(errors.New("db exec failed"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt // capture
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := newMockTelemetryRepo(t)
			defer cleanup()

			tt.mockExpect(mock)

			err := repo.Append(context.Background(), tt.rec)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTelemetrySQLite_WeeklyAverages(t *testing.T) {
	since := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)

	repo, mock, cleanup := newMockTelemetryRepo(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"count", "avg_device", "avg_sensor", "avg_delta"}).
		AddRow(48, 20.1, 20.6, 0.5)
	mock.ExpectQuery(regexp.QuoteMeta(weeklyAveragesSQL)).
		WithArgs("living_room", "2026-01-03 12:00:00").
		WillReturnRows(rows)

	rep, err := repo.WeeklyAverages(context.Background(), "living_room", since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.WeeklyReport{
		Room:           "living_room",
		AvgDeviceTempC: 20.1,
		AvgSensorTempC: 20.6,
		AvgDeltaC:      0.5,
		SampleCount:    48,
	}
	if rep != want {
		t.Fatalf("unexpected report: want %+v, got %+v", want, rep)
	}
}

func TestTelemetrySQLite_WeeklyAverages_QueryError(t *testing.T) {
	repo, mock, cleanup := newMockTelemetryRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(weeklyAveragesSQL)).
		WillReturnError(errors.New("db query failed"))

	if _, err := repo.WeeklyAverages(context.Background(), "living_room", time.Now()); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
