package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the explicit configuration structure handed to constructors.
// Nothing in here lives as a process-wide constant; room tables, endpoint
// lists and vocabulary overrides are all data.
type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`

	Auth struct {
		SigningKey string `mapstructure:"signing_key"`
	} `mapstructure:"auth"`

	Cloud  CloudConfig  `mapstructure:"cloud"`
	Sensor SensorConfig `mapstructure:"sensor"`

	Telemetry struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"telemetry"`

	// Rooms maps device labels to rooms and carries the per-room comfort
	// (HOME-mode) target temperature.
	Rooms []RoomConfig `mapstructure:"rooms"`

	// Vocab overrides the built-in mode-token table per device widget.
	Vocab []VocabOverride `mapstructure:"vocab"`
}

// CloudConfig holds heating-cloud credentials and the ordered candidate
// cluster endpoint list.
type CloudConfig struct {
	User      string        `mapstructure:"user"`
	Password  string        `mapstructure:"password"`
	Endpoints []string      `mapstructure:"endpoints"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SensorConfig holds the independent external sensor cloud account. The
// sensor observes exactly one monitored room.
type SensorConfig struct {
	URL      string        `mapstructure:"url"`
	DeviceID string        `mapstructure:"device_id"`
	AuthKey  string        `mapstructure:"auth_key"`
	Room     string        `mapstructure:"room"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// RoomConfig associates devices with a room by label substring match.
type RoomConfig struct {
	Name         string  `mapstructure:"name"`
	LabelMatch   string  `mapstructure:"label_match"`
	ComfortTempC float64 `mapstructure:"comfort_temp_c"`
}

// VocabOverride replaces the mode tokens for one device widget.
type VocabOverride struct {
	Widget    string `mapstructure:"widget"`
	HomeToken string `mapstructure:"home_token"`
	AwayToken string `mapstructure:"away_token"`
}

const (
	defaultCloudTimeout      = 30 * time.Second
	defaultSensorTimeout     = 15 * time.Second
	defaultTelemetryInterval = time.Hour
)

// Load reads configs/config.yml plus HEATING_*-prefixed environment
// overrides (credentials are expected from the environment in deployments).
func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath("configs")
	v.SetConfigName("config")

	v.SetEnvPrefix("heating")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// env-only deployments run without a file
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DB.Path == "" {
		cfg.DB.Path = "heating.db"
	}
	if cfg.Cloud.Timeout <= 0 {
		cfg.Cloud.Timeout = defaultCloudTimeout
	}
	if cfg.Sensor.Timeout <= 0 {
		cfg.Sensor.Timeout = defaultSensorTimeout
	}
	if cfg.Telemetry.Interval <= 0 {
		cfg.Telemetry.Interval = defaultTelemetryInterval
	}
}

func validate(cfg *Config) error {
	if cfg.Cloud.User == "" || cfg.Cloud.Password == "" {
		return errors.New("cloud.user and cloud.password are required")
	}
	if len(cfg.Cloud.Endpoints) == 0 {
		return errors.New("cloud.endpoints must list at least one cluster endpoint")
	}
	return nil
}
