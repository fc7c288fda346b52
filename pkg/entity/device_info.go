// Package entity provides read-only projections over coordinator
// snapshots: Energy, Power, and Forecast, each with Home-Assistant unit
// and device-class metadata (spec.md §4.8).
package entity

import "onemeter-bridge/pkg/mqtt"

// DeviceID identifies the logical meter these entities belong to.
type DeviceID string

// NewDeviceInfo builds the shared device identity for all three entities,
// mirroring the teacher's mqtt.DeviceInfo shape.
func NewDeviceInfo(deviceID DeviceID, manufacturer, model, swVersion string) mqtt.DeviceInfo {
	return mqtt.DeviceInfo{
		Name:         string(deviceID),
		Identifiers:  []string{string(deviceID)},
		Manufacturer: manufacturer,
		Model:        model,
		SWVersion:    swVersion,
	}
}
