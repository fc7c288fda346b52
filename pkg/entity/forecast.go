package entity

import (
	"fmt"
	"strconv"

	"onemeter-bridge/pkg/coordinator"
)

// Forecast is the month-to-date projection entity: unit kWh, no device
// class (to avoid conflicting with energy's increasing-only contract),
// state class "measurement". Exposes the month-baseline attributes and
// restores its last reported value as a display-only fallback (spec.md
// §4.8, §9: "the Forecast's last value is advisory, not authoritative").
type Forecast struct {
	deviceID string
}

// NewForecast returns a Forecast view for deviceID.
func NewForecast(deviceID string) *Forecast {
	return &Forecast{deviceID: deviceID}
}

// UniqueID returns the stable Home-Assistant unique id.
func (f *Forecast) UniqueID() string {
	return fmt.Sprintf("%s_monthly_forecast_kwh", f.deviceID)
}

// Unit returns the entity's unit of measurement.
func (f *Forecast) Unit() string { return "kWh" }

// DeviceClass is empty: Forecast has no device class.
func (f *Forecast) DeviceClass() string { return "" }

// StateClass returns the Home-Assistant state class.
func (f *Forecast) StateClass() string { return "measurement" }

// Value returns the latest integer forecast for snap.
func (f *Forecast) Value(snap coordinator.Snapshot) int {
	return snap.ForecastKWh
}

// Attributes returns the display attributes named in spec.md §4.8.
func (f *Forecast) Attributes(snap coordinator.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"kwh_at_month_start_imp": snap.MonthStartImpulses,
		"last_month_checked":     snap.LastMonthChecked,
		"month_start_timestamp":  snap.MonthStartTimestamp,
	}
}

// LastPersistedState formats Value for durable, advisory restore.
func (f *Forecast) LastPersistedState(snap coordinator.Snapshot) string {
	return strconv.Itoa(f.Value(snap))
}
