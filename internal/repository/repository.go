package repository

import (
	"context"
	"database/sql"
	"time"

	"heating_bridge/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// TelemetryRepo persists immutable temperature observations. Append-only:
// there is no update or delete path.
type TelemetryRepo interface {
	Append(ctx context.Context, rec models.TelemetryRecord) error
	WeeklyAverages(ctx context.Context, room string, since time.Time) (models.WeeklyReport, error)
}

// EventRepo is the append-only operation log with filtered reads.
type EventRepo interface {
	Append(ctx context.Context, e models.OperationEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.OperationEvent, error)
}

type Repository struct {
	Telemetry TelemetryRepo
	Events    EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Telemetry: NewTelemetrySQLite(db),
		Events:    NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
