package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	bridgeerrors "onemeter-bridge/pkg/errors"
	"onemeter-bridge/pkg/logger"
)

// Config represents the complete application configuration: one MQTT
// connection, the ambient logging/HTTP settings, and one or more OneMeter
// device definitions (spec.md §3).
type Config struct {
	Version    string       `yaml:"version,omitempty" validate:"omitempty"`
	MQTT       MQTTConfig   `yaml:"mqtt" validate:"required"`
	HTTPServer HTTPConfig   `yaml:"http_server"`
	Devices    []DeviceMeta `yaml:"devices" validate:"required,min=1,dive"`
	Logging    logger.LoggingConfig `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker     string `yaml:"broker" validate:"required"`
	Port       int    `yaml:"port" validate:"required,gt=0"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	ClientID   string `yaml:"client_id" validate:"required"`
	RetryDelay int    `yaml:"retry_delay"` // milliseconds between connect retries
	KeepAlive  int    `yaml:"keep_alive"`  // seconds
}

// HTTPConfig contains the ambient healthz/metrics server settings.
type HTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port" validate:"omitempty,gt=0"`
}

// DeviceMeta is a single configured OneMeter device (spec.md §3's
// configuration table, generalized from "one instance" to "a list of
// instances" so device_id uniqueness is a real cross-field check).
type DeviceMeta struct {
	DeviceID           string  `yaml:"device_id" validate:"required"`
	TargetMAC          string  `yaml:"target_mac" validate:"required,len=12,hexadecimal"`
	SubscribeTopic     string  `yaml:"subscribe_topic" validate:"required"`
	ImpulsesPerKWh     int     `yaml:"impulses_per_kwh" validate:"required,gt=0"`
	MaxPowerKW         float64 `yaml:"max_power_kw" validate:"gt=0"`
	PowerAverageWindow int     `yaml:"power_average_window" validate:"gt=0"`
	PowerTimeoutSecs   int     `yaml:"power_timeout_seconds" validate:"gt=0"`
	InitialKWh         float64 `yaml:"initial_kwh" validate:"gte=0"`
	MonthlyUsageKWh    float64 `yaml:"monthly_usage_kwh" validate:"gte=0"`
}

// Defaults matching spec.md §3's default column.
const (
	DefaultDeviceID           = "om9613"
	DefaultTargetMAC          = "E58D81019613"
	DefaultSubscribeTopic     = "onemeter/s10/v1"
	DefaultImpulsesPerKWh     = 1000
	DefaultMaxPowerKW         = 20.0
	DefaultPowerAverageWindow = 2
	DefaultPowerTimeoutSecs   = 300
)

var structValidator = validator.New()

// LoadConfig loads configuration from configPath, falling back to the
// well-known search locations the teacher's config loader used.
func LoadConfig(configPath string) (*Config, error) {
	paths := []string{
		configPath,
		"/etc/onemeter-bridge/config.yaml",
		"/etc/onemeter-bridge.yaml",
		"./config.yaml",
	}

	var data []byte
	var err error
	var usedPath string

	for _, path := range paths {
		if path == "" {
			continue
		}
		// #nosec G304 - paths are from a hardcoded list of safe configuration file locations
		data, err = os.ReadFile(path)
		if err == nil {
			usedPath = path
			break
		}
	}

	if err != nil {
		return nil, bridgeerrors.NewConfigError("load", fmt.Errorf("cannot read configuration file from any of %v: %w", paths, err), "")
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	if err := ValidateWithSchema(data); err != nil {
		return nil, bridgeerrors.NewConfigError("schema_validate", err, usedPath)
	}

	logger.LogInfo("✅ Configuration loaded successfully from %s (version: %s)", usedPath, cfg.Version)
	return cfg, nil
}

// LoadConfigFromString loads configuration from a YAML string (for tests
// and standalone operation).
func LoadConfigFromString(yamlContent string) (*Config, error) {
	return parse([]byte(yamlContent))
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, bridgeerrors.NewConfigError("parse", err, "")
	}
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	for i := range cfg.Devices {
		d := &cfg.Devices[i]
		if d.DeviceID == "" {
			d.DeviceID = DefaultDeviceID
		}
		if d.TargetMAC == "" {
			d.TargetMAC = DefaultTargetMAC
		}
		if d.SubscribeTopic == "" {
			d.SubscribeTopic = DefaultSubscribeTopic
		}
		if d.ImpulsesPerKWh == 0 {
			d.ImpulsesPerKWh = DefaultImpulsesPerKWh
		}
		if d.MaxPowerKW == 0 {
			d.MaxPowerKW = DefaultMaxPowerKW
		}
		if d.PowerAverageWindow == 0 {
			d.PowerAverageWindow = DefaultPowerAverageWindow
		}
		if d.PowerTimeoutSecs == 0 {
			d.PowerTimeoutSecs = DefaultPowerTimeoutSecs
		}
	}
}

// Validate checks struct-tag constraints (go-playground/validator) plus
// the cross-field rules validator tags can't express: impulses_per_kwh's
// specific error key and device_id uniqueness (spec.md §6).
func (c *Config) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return bridgeerrors.NewValidationError("config", "valid struct tags", err.Error())
	}

	seen := make(map[string]bool, len(c.Devices))
	for _, d := range c.Devices {
		if d.ImpulsesPerKWh <= 0 {
			return &bridgeerrors.ValidationError{
				BridgeError: bridgeerrors.BridgeError{
					Op:       "invalid_impulses",
					Err:      fmt.Errorf("impulses_per_kwh must be positive, got %d", d.ImpulsesPerKWh),
					Severity: bridgeerrors.SeverityWarning,
					Code:     5,
				},
				Field:    "impulses_per_kwh",
				Expected: "> 0",
				Actual:   d.ImpulsesPerKWh,
			}
		}
		if seen[d.DeviceID] {
			return bridgeerrors.NewConfigError("validate", fmt.Errorf("duplicate device_id %q", d.DeviceID), "devices")
		}
		seen[d.DeviceID] = true
	}

	return nil
}
