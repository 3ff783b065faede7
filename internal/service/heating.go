package service

import (
	"context"
	"fmt"
	"time"

	"heating_bridge/internal/cloud"
	"heating_bridge/internal/logger"
	"heating_bridge/internal/models"
	"heating_bridge/internal/repository"

	"github.com/google/uuid"
)

const (
	// AwayFallbackTempC is the setpoint used for AWAY when neither an
	// override nor a comfort temperature applies.
	AwayFallbackTempC = 16.0

	defaultMaxAttempts    = 2
	defaultVerifyInterval = 10 * time.Second

	// setpointToleranceC absorbs firmware rounding when comparing the
	// reported setpoint against the commanded one.
	setpointToleranceC = 0.1
)

// Operation log event types.
const (
	EventRequested  = "REQUESTED"
	EventDispatched = "DISPATCHED"
	EventConverged  = "CONVERGED"
	EventPartial    = "PARTIAL"
	EventError      = "ERROR"
)

// HeatingService drives the cloud: one session per operation, capability
// aware command composition, and time-based confirmation of the effect.
type HeatingService struct {
	dial     CloudDialer
	sensor   SensorReader
	events   repository.EventRepo
	vocab    *Vocabulary
	log      *logger.Logger
	attempts int
	interval time.Duration
}

func NewHeatingService(dial CloudDialer, sensor SensorReader, events repository.EventRepo, vocab *Vocabulary, log *logger.Logger) *HeatingService {
	return &HeatingService{
		dial:     dial,
		sensor:   sensor,
		events:   events,
		vocab:    vocab,
		log:      log,
		attempts: defaultMaxAttempts,
		interval: defaultVerifyInterval,
	}
}

// ApplyMode runs one full mode-change operation:
// REQUESTED -> DISPATCHED -> {CONVERGED | PARTIAL_AFTER_RETRIES}.
// Authentication and directory failures abort the whole operation; every
// per-device failure is captured in the report instead.
func (s *HeatingService) ApplyMode(ctx context.Context, req models.ModeRequest) (models.OperationReport, error) {
	if req.Mode != models.ModeHome && req.Mode != models.ModeAway {
		return models.OperationReport{}, fmt.Errorf("invalid mode %q: must be HOME or AWAY", req.Mode)
	}

	opID := uuid.NewString()
	s.appendEvent(ctx, EventRequested, "Mode change requested", map[string]any{
		"operation_id": opID,
		"mode":         req.Mode,
	})

	cli, err := s.dial.Dial(ctx)
	if err != nil {
		s.appendEvent(ctx, EventError, "Session acquisition failed", map[string]any{"operation_id": opID, "err": err.Error()})
		return models.OperationReport{}, err
	}
	devices, err := cli.ListDevices(ctx)
	if err != nil {
		s.appendEvent(ctx, EventError, "Device listing failed", map[string]any{"operation_id": opID, "err": err.Error()})
		return models.OperationReport{}, err
	}

	results := s.dispatch(ctx, cli, devices, req)
	s.appendEvent(ctx, EventDispatched, "Command batches dispatched", map[string]any{
		"operation_id": opID,
		"devices":      len(results),
	})

	snapshot, converged := s.verify(ctx, cli, devices, results)

	state := models.OperationConverged
	eventType := EventConverged
	if !converged {
		state = models.OperationPartial
		eventType = EventPartial
	}
	s.appendEvent(ctx, eventType, "Mode change "+state, map[string]any{
		"operation_id": opID,
		"unconfirmed":  unconfirmedLabels(results),
	})

	return models.OperationReport{
		OperationID: opID,
		Mode:        req.Mode,
		State:       state,
		Devices:     results,
		Snapshot:    snapshot,
	}, nil
}

// GetStatus performs one reconciliation read without a preceding dispatch.
func (s *HeatingService) GetStatus(ctx context.Context) (models.StateSnapshot, error) {
	cli, err := s.dial.Dial(ctx)
	if err != nil {
		return models.StateSnapshot{}, err
	}
	devices, err := cli.ListDevices(ctx)
	if err != nil {
		return models.StateSnapshot{}, err
	}
	states, err := cli.DeviceStates(ctx)
	if err != nil {
		return models.StateSnapshot{}, err
	}
	return s.buildSnapshot(ctx, devices, states), nil
}

// dispatch composes and submits one command batch per controllable device.
// The temperature command always precedes the mode command: several device
// models reject a setpoint once they are already in automatic/internal mode.
// One batch is one atomic cloud call; a failed device never aborts its
// siblings.
func (s *HeatingService) dispatch(ctx context.Context, cli Cloud, devices []models.Device, req models.ModeRequest) []models.CommandResult {
	var results []models.CommandResult
	for _, d := range devices {
		cs, ok := s.vocab.Lookup(d)
		if !ok {
			continue // Other: visible for temperature sourcing, never commanded
		}

		tempC := resolveTargetTemp(req, d)
		token := cs.Token(req.Mode)
		batch := []cloud.Command{
			{Name: cs.TemperatureCommand, Parameters: []any{tempC}},
			{Name: cs.ModeCommand, Parameters: []any{token}},
		}

		res := models.CommandResult{
			DeviceURL:    d.DeviceURL,
			Label:        d.Label,
			AppliedTempC: tempC,
			ModeToken:    token,
		}
		if _, err := cli.Execute(ctx, d.Label, d.DeviceURL, batch); err != nil {
			res.Error = err.Error()
			if s.log != nil {
				s.log.Errorw("device_command_failed", "device", d.Label, "err", err)
			}
		} else {
			res.Sent = true
		}
		results = append(results, res)
	}
	return results
}

// resolveTargetTemp picks the setpoint for one device: explicit override
// first, the room's comfort temperature for HOME, the fixed fallback for
// AWAY.
func resolveTargetTemp(req models.ModeRequest, d models.Device) float64 {
	if req.OverrideTempC != nil {
		return *req.OverrideTempC
	}
	if req.Mode == models.ModeHome && d.ComfortTempC > 0 {
		return d.ComfortTempC
	}
	return AwayFallbackTempC
}

func (s *HeatingService) appendEvent(ctx context.Context, typ, desc string, meta map[string]any) {
	if s.events == nil {
		return
	}
	err := s.events.Append(ctx, models.OperationEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil && s.log != nil {
		s.log.Errorw("operation_event_append_failed", "type", typ, "err", err)
	}
}

func unconfirmedLabels(results []models.CommandResult) []string {
	var out []string
	for _, r := range results {
		if !r.Confirmed {
			out = append(out, r.Label)
		}
	}
	return out
}
