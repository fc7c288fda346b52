package mqtt

// DeviceInfo describes the Home-Assistant device identity shared by the
// Energy, Power, and Forecast entities. Ported from the teacher's
// mqtt.DeviceInfo shape (publisher.go).
type DeviceInfo struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version,omitempty"`
}
