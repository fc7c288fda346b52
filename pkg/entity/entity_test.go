package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"onemeter-bridge/pkg/coordinator"
)

func TestEnergyView(t *testing.T) {
	e := NewEnergy("om9613")
	snap := coordinator.Snapshot{KWh: 0.0012345}

	assert.Equal(t, "om9613_energy_kwh", e.UniqueID())
	assert.Equal(t, "kWh", e.Unit())
	assert.Equal(t, "energy", e.DeviceClass())
	assert.Equal(t, "total_increasing", e.StateClass())
	assert.InDelta(t, 0.001, e.Value(snap), 1e-9)
	assert.Equal(t, "0.001", e.LastPersistedState(snap))
}

func TestPowerView(t *testing.T) {
	p := NewPower("om9613")
	snap := coordinator.Snapshot{PowerKW: 3.6001}

	assert.Equal(t, "om9613_power_kw", p.UniqueID())
	assert.Equal(t, "power", p.DeviceClass())
	assert.Equal(t, "measurement", p.StateClass())
	assert.InDelta(t, 3.6, p.Value(snap), 1e-3)
}

func TestForecastView(t *testing.T) {
	f := NewForecast("om9613")
	snap := coordinator.Snapshot{ForecastKWh: 150, MonthStartImpulses: 100000, LastMonthChecked: 6}

	assert.Equal(t, "om9613_monthly_forecast_kwh", f.UniqueID())
	assert.Equal(t, "", f.DeviceClass())
	assert.Equal(t, 150, f.Value(snap))
	assert.Equal(t, "150", f.LastPersistedState(snap))
	assert.Equal(t, uint64(100000), f.Attributes(snap)["kwh_at_month_start_imp"])
}

func TestDeviceInfo(t *testing.T) {
	info := NewDeviceInfo("om9613", "OneMeter", "S10", "1.0.0")
	assert.Equal(t, "om9613", info.Name)
	assert.Equal(t, []string{"om9613"}, info.Identifiers)
}
