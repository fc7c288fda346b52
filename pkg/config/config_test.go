package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
mqtt:
  broker: localhost
  port: 1883
  client_id: onemeter-bridge
devices:
  - device_id: om9613
    target_mac: E58D81019613
    subscribe_topic: onemeter/s10/v1
    impulses_per_kwh: 1000
    max_power_kw: 20
    power_average_window: 2
    power_timeout_seconds: 300
`

func TestLoadConfigFromStringValid(t *testing.T) {
	cfg, err := LoadConfigFromString(validYAML)
	require.NoError(t, err)
	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, "om9613", cfg.Devices[0].DeviceID)
	assert.Equal(t, 1000, cfg.Devices[0].ImpulsesPerKWh)
}

func TestValidateRejectsDuplicateDeviceID(t *testing.T) {
	bad := `
mqtt:
  broker: localhost
  port: 1883
  client_id: bridge
devices:
  - device_id: om9613
    target_mac: E58D81019613
    subscribe_topic: onemeter/s10/v1
    impulses_per_kwh: 1000
    max_power_kw: 20
    power_average_window: 2
    power_timeout_seconds: 300
  - device_id: om9613
    target_mac: AAAAAAAAAAAA
    subscribe_topic: onemeter/s10/v2
    impulses_per_kwh: 500
    max_power_kw: 10
    power_average_window: 2
    power_timeout_seconds: 300
`
	_, err := LoadConfigFromString(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate device_id")
}

func TestValidateRejectsMissingBroker(t *testing.T) {
	bad := `
mqtt:
  port: 1883
  client_id: bridge
devices:
  - device_id: om9613
    target_mac: E58D81019613
    subscribe_topic: onemeter/s10/v1
    impulses_per_kwh: 1000
    max_power_kw: 20
    power_average_window: 2
    power_timeout_seconds: 300
`
	_, err := LoadConfigFromString(bad)
	require.Error(t, err)
}

func TestValidateWithSchemaAcceptsValidConfig(t *testing.T) {
	err := ValidateWithSchema([]byte(validYAML))
	assert.NoError(t, err)
}

func TestValidateWithSchemaRejectsBadMAC(t *testing.T) {
	bad := `
mqtt:
  broker: localhost
  port: 1883
  client_id: bridge
devices:
  - device_id: om9613
    target_mac: not-hex
    subscribe_topic: onemeter/s10/v1
    impulses_per_kwh: 1000
`
	err := ValidateWithSchema([]byte(bad))
	assert.Error(t, err)
}

func TestDefaultsApplied(t *testing.T) {
	minimal := `
mqtt:
  broker: localhost
  port: 1883
  client_id: bridge
devices:
  - target_mac: E58D81019613
`
	cfg, err := LoadConfigFromString(minimal)
	require.NoError(t, err)
	assert.Equal(t, DefaultDeviceID, cfg.Devices[0].DeviceID)
	assert.Equal(t, DefaultImpulsesPerKWh, cfg.Devices[0].ImpulsesPerKWh)
	assert.Equal(t, DefaultMaxPowerKW, cfg.Devices[0].MaxPowerKW)
}
