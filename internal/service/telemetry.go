package service

import (
	"context"
	"time"

	"heating_bridge/internal/logger"
	"heating_bridge/internal/models"
	"heating_bridge/internal/repository"
)

// StatusReader is the slice of Heating the recorder needs.
type StatusReader interface {
	GetStatus(ctx context.Context) (models.StateSnapshot, error)
}

// TelemetryService appends snapshot observations to the time series. A
// missed point is not user-facing: every failure inside the background loop
// is logged and swallowed, and the loop continues on its next tick.
type TelemetryService struct {
	status StatusReader
	repo   repository.TelemetryRepo
	log    *logger.Logger
}

func NewTelemetryService(status StatusReader, repo repository.TelemetryRepo, log *logger.Logger) *TelemetryService {
	return &TelemetryService{status: status, repo: repo, log: log}
}

// Record writes one row per room that has a measured temperature. Rooms
// without a surviving ambient reading are skipped entirely rather than
// recorded as zero.
func (s *TelemetryService) Record(ctx context.Context, snap models.StateSnapshot) error {
	ts := snap.TakenAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	var firstErr error
	for _, room := range snap.Rooms {
		if room.AmbientTempC == nil {
			continue
		}
		err := s.repo.Append(ctx, models.TelemetryRecord{
			RecordedAt:  ts,
			Room:        room.Room,
			DeviceTempC: *room.AmbientTempC,
			SensorTempC: room.SensorTempC,
			SetpointC:   room.SetpointC,
		})
		if err != nil {
			if s.log != nil {
				s.log.Errorw("telemetry_append_failed", "room", room.Room, "err", err)
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Run ticks at the given interval until ctx is canceled. Each tick takes a
// fresh snapshot (its own cloud session) and records it.
func (s *TelemetryService) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			snap, err := s.status.GetStatus(ctx)
			if err != nil {
				if s.log != nil {
					s.log.Errorw("telemetry_snapshot_failed", "err", err)
				}
				continue
			}
			if err := s.Record(ctx, snap); err != nil && s.log != nil {
				s.log.Errorw("telemetry_record_failed", "err", err)
			}
		}
	}
}
