package service

import (
	"context"
	"time"

	"heating_bridge/internal/cloud"
	"heating_bridge/internal/config"
	"heating_bridge/internal/logger"
	"heating_bridge/internal/models"
	"heating_bridge/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Heating is the control engine: mode dispatch with confirmation, and the
// reconciliation read behind it.
type Heating interface {
	ApplyMode(ctx context.Context, req models.ModeRequest) (models.OperationReport, error)
	GetStatus(ctx context.Context) (models.StateSnapshot, error)
}

// Telemetry persists snapshots and runs the background recorder loop.
// Stop via context cancellation in main() for graceful shutdown.
type Telemetry interface {
	Record(ctx context.Context, snap models.StateSnapshot) error
	Run(ctx context.Context, interval time.Duration)
}

// Reporting exposes the read-side aggregate over persisted telemetry.
type Reporting interface {
	Weekly(ctx context.Context, room string) (models.WeeklyReport, error)
}

// OperationLog exposes the append-only operation log with filtering access.
type OperationLog interface {
	List(ctx context.Context, f LogFilter) ([]models.OperationEvent, error)
}

// Cloud is the per-session vendor API surface the engine drives. Implemented
// by *cloud.Client; faked in tests.
type Cloud interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	DeviceStates(ctx context.Context) (map[string]cloud.DeviceState, error)
	Execute(ctx context.Context, label, deviceURL string, commands []cloud.Command) (string, error)
}

// CloudDialer hands out one fresh authenticated session per operation.
type CloudDialer interface {
	Dial(ctx context.Context) (Cloud, error)
}

// SensorReader reads the independent external sensor for its monitored room.
type SensorReader interface {
	Read(ctx context.Context) (float64, error)
	Room() string
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Heating
	Telemetry
	Reporting
	OperationLog
	Authorization
}

// Deps carries the non-repository collaborators of the service layer.
type Deps struct {
	Dialer CloudDialer
	Sensor SensorReader
	Log    *logger.Logger
	Cfg    *config.Config
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	heating := NewHeatingService(deps.Dialer, deps.Sensor, repos.Events, NewVocabulary(vocabOverrides(deps.Cfg)), deps.Log)
	return &Service{
		Heating:       heating,
		Telemetry:     NewTelemetryService(heating, repos.Telemetry, deps.Log),
		Reporting:     NewReportService(repos.Telemetry),
		OperationLog:  NewOperationLogService(repos.Events),
		Authorization: NewAuthService(repos.Auth, signingKeyFrom(deps.Cfg)),
	}
}

func vocabOverrides(cfg *config.Config) []config.VocabOverride {
	if cfg == nil {
		return nil
	}
	return cfg.Vocab
}

func signingKeyFrom(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.Auth.SigningKey
}

// cloudDialer adapts *cloud.Dialer to the service-level interface.
type cloudDialer struct {
	d *cloud.Dialer
}

// NewCloudDialer wraps the concrete dialer for service wiring.
func NewCloudDialer(d *cloud.Dialer) CloudDialer {
	return cloudDialer{d: d}
}

func (c cloudDialer) Dial(ctx context.Context) (Cloud, error) {
	cli, err := c.d.Dial(ctx)
	if err != nil {
		return nil, err
	}
	return cli, nil
}
