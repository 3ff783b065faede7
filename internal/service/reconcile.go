package service

import (
	"context"
	"time"

	"heating_bridge/internal/cloud"
	"heating_bridge/internal/models"
)

// verify waits, re-reads device state and compares the authoritative
// setpoint against each dispatched value, retrying up to s.attempts total
// reads. The final read becomes the snapshot whether or not every device
// converged; results are updated in place with per-device confirmation.
func (s *HeatingService) verify(ctx context.Context, cli Cloud, devices []models.Device, results []models.CommandResult) (models.StateSnapshot, bool) {
	pending := make(map[string]float64, len(results))
	for _, r := range results {
		if r.Sent {
			pending[r.DeviceURL] = r.AppliedTempC
		}
	}

	var states map[string]cloud.DeviceState
	for attempt := 0; attempt < s.attempts; attempt++ {
		if err := waitInterval(ctx, s.interval); err != nil {
			break
		}
		read, err := cli.DeviceStates(ctx)
		if err != nil {
			if s.log != nil {
				s.log.Errorw("verify_read_failed", "attempt", attempt+1, "err", err)
			}
			continue
		}
		states = read

		for url, want := range pending {
			got, ok := states[url].Setpoint()
			if ok && floatNear(got, want) {
				delete(pending, url)
			}
		}
		if len(pending) == 0 {
			break
		}
	}

	converged := true
	for i := range results {
		if !results[i].Sent {
			converged = false
			continue
		}
		_, still := pending[results[i].DeviceURL]
		results[i].Confirmed = !still
		if still {
			converged = false
		}
	}

	return s.buildSnapshot(ctx, devices, states), converged
}

// buildSnapshot folds raw device states into per-room state and merges the
// external sensor reading for the monitored room. A missing sensor reading
// never blocks the snapshot.
func (s *HeatingService) buildSnapshot(ctx context.Context, devices []models.Device, states map[string]cloud.DeviceState) models.StateSnapshot {
	snap := models.StateSnapshot{TakenAt: time.Now().UTC()}
	index := make(map[string]int)

	for _, d := range devices {
		if d.Room == "" {
			continue
		}
		i, ok := index[d.Room]
		if !ok {
			snap.Rooms = append(snap.Rooms, models.RoomState{Room: d.Room})
			i = len(snap.Rooms) - 1
			index[d.Room] = i
		}
		ds, have := states[d.DeviceURL]
		if !have {
			continue
		}
		if snap.Rooms[i].AmbientTempC == nil {
			if v, ok := ds.Ambient(); ok {
				snap.Rooms[i].AmbientTempC = &v
			}
		}
		if snap.Rooms[i].SetpointC == nil && d.Capability.Controllable() {
			if v, ok := ds.Setpoint(); ok {
				snap.Rooms[i].SetpointC = &v
			}
		}
	}

	s.mergeSensor(ctx, &snap, index)
	return snap
}

func (s *HeatingService) mergeSensor(ctx context.Context, snap *models.StateSnapshot, index map[string]int) {
	if s.sensor == nil || s.sensor.Room() == "" {
		return
	}
	v, err := s.sensor.Read(ctx)
	if err != nil {
		if s.log != nil {
			s.log.Infow("sensor_read_failed", "room", s.sensor.Room(), "err", err)
		}
		return
	}
	room := s.sensor.Room()
	i, ok := index[room]
	if !ok {
		snap.Rooms = append(snap.Rooms, models.RoomState{Room: room})
		i = len(snap.Rooms) - 1
		index[room] = i
	}
	snap.Rooms[i].SensorTempC = &v
}

// waitInterval is a context-aware scheduled suspension, not a busy wait.
func waitInterval(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func floatNear(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= setpointToleranceC
}

