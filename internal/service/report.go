package service

import (
	"context"
	"errors"
	"time"

	"heating_bridge/internal/models"
	"heating_bridge/internal/repository"
)

const reportWindow = 7 * 24 * time.Hour

var errRoomRequired = errors.New("room is required")

// ReportService answers time-windowed aggregate queries over the telemetry
// series, e.g. the average delta between the independent sensor and the
// radiator's own reading.
type ReportService struct {
	repo repository.TelemetryRepo
}

func NewReportService(repo repository.TelemetryRepo) *ReportService {
	return &ReportService{repo: repo}
}

// Weekly aggregates the trailing seven days for one room.
func (s *ReportService) Weekly(ctx context.Context, room string) (models.WeeklyReport, error) {
	if room == "" {
		return models.WeeklyReport{}, errRoomRequired
	}
	since := time.Now().UTC().Add(-reportWindow)
	return s.repo.WeeklyAverages(ctx, room, since)
}
