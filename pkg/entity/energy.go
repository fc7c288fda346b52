package entity

import (
	"fmt"
	"math"

	"onemeter-bridge/pkg/coordinator"
)

// Energy is the cumulative-consumption entity: unit kWh, device class
// "energy", state class "total_increasing". It persists its own state so
// it can seed the restorer on the next attach (spec.md §4.8, §9).
type Energy struct {
	deviceID string
}

// NewEnergy returns an Energy view for deviceID.
func NewEnergy(deviceID string) *Energy {
	return &Energy{deviceID: deviceID}
}

// UniqueID returns the stable Home-Assistant unique id.
func (e *Energy) UniqueID() string {
	return fmt.Sprintf("%s_energy_kwh", e.deviceID)
}

// Unit returns the entity's unit of measurement.
func (e *Energy) Unit() string { return "kWh" }

// DeviceClass returns the Home-Assistant device class.
func (e *Energy) DeviceClass() string { return "energy" }

// StateClass returns the Home-Assistant state class.
func (e *Energy) StateClass() string { return "total_increasing" }

// Value returns the rounded kWh reading for snap.
func (e *Energy) Value(snap coordinator.Snapshot) float64 {
	return math.Round(snap.KWh*1000) / 1000
}

// LastPersistedState formats Value for durable storage / restore (spec.md
// §9 "Restore channel": the coordinator's sole durable signal).
func (e *Energy) LastPersistedState(snap coordinator.Snapshot) string {
	return fmt.Sprintf("%.3f", e.Value(snap))
}
