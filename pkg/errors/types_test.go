package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPulseErrorCreation(t *testing.T) {
	baseErr := fmt.Errorf("timeout decoding frame")
	pulseErr := NewPulseError("decode_frame", baseErr, "energy_meter")

	assert.Equal(t, "energy_meter", pulseErr.DeviceID)
	assert.NotEmpty(t, pulseErr.Error())
	t.Logf("PulseError message: %s", pulseErr.Error())
}

func TestPublishErrorCreation(t *testing.T) {
	baseErr := fmt.Errorf("connection timeout")
	publishErr := NewPublishError("connect", baseErr, "localhost:1883")
	publishErr.Topic = "homeassistant/sensor/test/state"
	publishErr.QoS = 1

	assert.Equal(t, "localhost:1883", publishErr.Broker)
	assert.Equal(t, "homeassistant/sensor/test/state", publishErr.Topic)
	assert.Equal(t, byte(1), publishErr.QoS)
	assert.NotEmpty(t, publishErr.Error())
}

func TestSubscriptionErrorCreation(t *testing.T) {
	baseErr := fmt.Errorf("subscribe timeout")
	subErr := NewSubscriptionError("subscribe", baseErr, "onemeter/+/data")

	assert.Equal(t, "onemeter/+/data", subErr.Topic)
	assert.NotEmpty(t, subErr.Error())
}

func TestErrorUnwrapping(t *testing.T) {
	baseErr := fmt.Errorf("base error")
	pulseErr := NewPulseError("test", baseErr, "device")

	unwrapped := errors.Unwrap(pulseErr)
	assert.Equal(t, baseErr, unwrapped)
}

func TestErrorTypeAssertion(t *testing.T) {
	baseErr := fmt.Errorf("connection failed")
	pulseErr := NewPulseError("read", baseErr, "meter_1")

	var err error = pulseErr

	switch e := err.(type) {
	case *PulseError:
		assert.Equal(t, "meter_1", e.DeviceID)
	case *PublishError:
		t.Error("Expected PulseError, got PublishError")
	default:
		t.Error("Expected PulseError, got unknown type")
	}
}

func TestErrorSeverity(t *testing.T) {
	pulseErr := NewPulseError("test", fmt.Errorf("test error"), "device")
	assert.Equal(t, SeverityError, pulseErr.Severity)

	configErr := NewConfigError("test", fmt.Errorf("test error"), "field")
	assert.Equal(t, SeverityCritical, configErr.Severity)

	validationErr := NewValidationError("field", "expected", "actual")
	assert.Equal(t, SeverityWarning, validationErr.Severity)
}

func TestErrorCodes(t *testing.T) {
	configErr := NewConfigError("test", fmt.Errorf("test"), "field")
	require.Equal(t, 1, configErr.Code)

	pulseErr := NewPulseError("test", fmt.Errorf("test"), "device")
	require.Equal(t, 3, pulseErr.Code)

	publishErr := NewPublishError("test", fmt.Errorf("test"), "broker")
	require.Equal(t, 4, publishErr.Code)

	subErr := NewSubscriptionError("test", fmt.Errorf("test"), "topic")
	require.Equal(t, 2, subErr.Code)
}

func TestIsRecoverable(t *testing.T) {
	assert.False(t, IsRecoverable(NewConfigError("test", fmt.Errorf("x"), "field")))
	assert.True(t, IsRecoverable(NewValidationError("field", "a", "b")))
	assert.True(t, IsRecoverable(nil))
}

func TestGetDiagnosticCode(t *testing.T) {
	assert.Equal(t, 3, GetDiagnosticCode(NewPulseError("op", fmt.Errorf("x"), "dev")))
	assert.Equal(t, 0, GetDiagnosticCode(nil))
	assert.Equal(t, 99, GetDiagnosticCode(fmt.Errorf("plain")))
}
