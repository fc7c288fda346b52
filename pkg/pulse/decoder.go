// Package pulse decodes the inbound device-list MQTT envelope into a single
// pulse event for the configured meter.
package pulse

import (
	"encoding/json"
	"errors"
	"strings"

	bridgeerrors "onemeter-bridge/pkg/errors"
)

// ErrNoMatch indicates the envelope carried no record for the configured MAC.
var ErrNoMatch = errors.New("no device record matches target MAC")

// PulseEvent is the single accepted pulse extracted from a device-list frame.
type PulseEvent struct {
	MAC       string
	Timestamp float64 // seconds since epoch
}

type deviceRecord struct {
	MAC string `json:"mac"`
	TS  int64  `json:"ts"`
}

type devListEnvelope struct {
	DevList []deviceRecord `json:"dev_list"`
}

// Decoder is stateless; a single instance may be shared across goroutines.
type Decoder struct{}

// NewDecoder returns a ready-to-use Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode parses payload, selects the record whose mac matches targetMAC
// case-insensitively, and returns the pulse it carries. Non-matching frames
// return ErrNoMatch; malformed frames return a *bridgeerrors.BridgeError;
// a matched record with a missing/zero ts returns a *bridgeerrors.ValidationError.
func (d *Decoder) Decode(payload []byte, targetMAC string) (PulseEvent, error) {
	var envelope devListEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return PulseEvent{}, &bridgeerrors.BridgeError{
			Op:       "decode_envelope",
			Err:      err,
			Severity: bridgeerrors.SeverityWarning,
			Code:     3,
		}
	}
	if envelope.DevList == nil {
		return PulseEvent{}, &bridgeerrors.BridgeError{
			Op:       "decode_envelope",
			Err:      errors.New("missing dev_list"),
			Severity: bridgeerrors.SeverityWarning,
			Code:     3,
		}
	}

	for _, rec := range envelope.DevList {
		if !strings.EqualFold(rec.MAC, targetMAC) {
			continue
		}
		if rec.TS == 0 {
			return PulseEvent{}, bridgeerrors.NewValidationError("ts", "non-zero ms timestamp", rec.TS)
		}
		return PulseEvent{MAC: rec.MAC, Timestamp: float64(rec.TS) / 1000.0}, nil
	}

	return PulseEvent{}, ErrNoMatch
}
