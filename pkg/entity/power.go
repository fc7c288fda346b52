package entity

import (
	"fmt"
	"math"

	"onemeter-bridge/pkg/coordinator"
)

// Power is the instantaneous-power entity: unit kW, device class "power",
// state class "measurement". Reads 0 once the coordinator's idle timeout
// has elapsed, regardless of the moving average (spec.md §4.8).
type Power struct {
	deviceID string
}

// NewPower returns a Power view for deviceID.
func NewPower(deviceID string) *Power {
	return &Power{deviceID: deviceID}
}

// UniqueID returns the stable Home-Assistant unique id.
func (p *Power) UniqueID() string {
	return fmt.Sprintf("%s_power_kw", p.deviceID)
}

// Unit returns the entity's unit of measurement.
func (p *Power) Unit() string { return "kW" }

// DeviceClass returns the Home-Assistant device class.
func (p *Power) DeviceClass() string { return "power" }

// StateClass returns the Home-Assistant state class.
func (p *Power) StateClass() string { return "measurement" }

// Value returns the rounded power reading for snap. The idle-zero rule
// already applied inside meter.PowerEstimator.Read, so snap.PowerKW is
// authoritative here.
func (p *Power) Value(snap coordinator.Snapshot) float64 {
	return math.Round(snap.PowerKW*1000) / 1000
}
