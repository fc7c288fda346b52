package errors

import (
	"context"
	"fmt"
	"onemeter-bridge/pkg/logger"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	diagnosticPublisher DiagnosticPublisher
}

// DiagnosticPublisher interface for publishing diagnostics
type DiagnosticPublisher interface {
	PublishDiagnostic(ctx context.Context, code int, message string) error
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(publisher DiagnosticPublisher) *ErrorHandler {
	return &ErrorHandler{
		diagnosticPublisher: publisher,
	}
}

// Handle processes an error with appropriate logging and diagnostics
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch e := err.(type) {
	case *SubscriptionError:
		h.handleSubscriptionError(ctx, e)
	case *PulseError:
		h.handlePulseError(ctx, e)
	case *PublishError:
		h.handlePublishError(ctx, e)
	case *ConfigError:
		h.handleConfigError(ctx, e)
	case *ValidationError:
		h.handleValidationError(ctx, e)
	case *BridgeError:
		h.handleBridgeError(ctx, e)
	default:
		h.handleGenericError(ctx, err)
	}
}

// handleSubscriptionError handles subscription-specific errors
func (h *ErrorHandler) handleSubscriptionError(ctx context.Context, err *SubscriptionError) {
	switch err.Severity {
	case SeverityCritical:
		logger.LogError("🔴 CRITICAL Subscription Error: %s", err.Error())
	case SeverityError:
		logger.LogError("❌ Subscription Error: %s", err.Error())
	case SeverityWarning:
		logger.LogWarn("⚠️ Subscription Warning: %s", err.Error())
	default:
		logger.LogInfo("ℹ️ Subscription Info: %s", err.Error())
	}

	if h.diagnosticPublisher != nil {
		message := fmt.Sprintf("Subscription '%s': %s", err.Topic, err.Op)
		if publishErr := h.diagnosticPublisher.PublishDiagnostic(ctx, err.Code, message); publishErr != nil {
			logger.LogDebug("Failed to publish subscription error diagnostic: %v", publishErr)
		}
	}
}

// handlePulseError handles pulse decode/accept errors
func (h *ErrorHandler) handlePulseError(ctx context.Context, err *PulseError) {
	switch err.Severity {
	case SeverityCritical:
		logger.LogError("🔴 CRITICAL Pulse Error: %s", err.Error())
	case SeverityError:
		logger.LogError("❌ Pulse Error: %s", err.Error())
	case SeverityWarning:
		logger.LogWarn("⚠️ Pulse Warning: %s", err.Error())
	default:
		// SeverityInfo here means an expected, silent skip (e.g. a frame
		// addressed to a different device) — not worth an info-level line.
		logger.LogDebug("🔕 Pulse skipped: %s", err.Error())
	}

	if h.diagnosticPublisher != nil {
		message := fmt.Sprintf("Device '%s': %s", err.DeviceID, err.Op)
		if publishErr := h.diagnosticPublisher.PublishDiagnostic(ctx, err.Code, message); publishErr != nil {
			logger.LogDebug("Failed to publish pulse error diagnostic: %v", publishErr)
		}
	}
}

// handlePublishError handles MQTT publish errors
func (h *ErrorHandler) handlePublishError(ctx context.Context, err *PublishError) {
	switch err.Severity {
	case SeverityCritical:
		logger.LogError("🔴 CRITICAL Publish Error: %s", err.Error())
	case SeverityError:
		logger.LogError("❌ Publish Error: %s", err.Error())
	case SeverityWarning:
		logger.LogWarn("⚠️ Publish Warning: %s", err.Error())
	default:
		logger.LogInfo("ℹ️ Publish Info: %s", err.Error())
	}

	if h.diagnosticPublisher != nil {
		message := fmt.Sprintf("Broker '%s': %s", err.Broker, err.Op)
		if publishErr := h.diagnosticPublisher.PublishDiagnostic(ctx, err.Code, message); publishErr != nil {
			logger.LogDebug("Failed to publish MQTT error diagnostic: %v", publishErr)
		}
	}
}

// handleConfigError handles configuration errors
func (h *ErrorHandler) handleConfigError(ctx context.Context, err *ConfigError) {
	// Config errors are always critical
	logger.LogError("🔴 CRITICAL Configuration Error: %s", err.Error())

	if h.diagnosticPublisher != nil {
		message := fmt.Sprintf("Config field '%s': %s", err.Field, err.Op)
		if publishErr := h.diagnosticPublisher.PublishDiagnostic(ctx, err.Code, message); publishErr != nil {
			logger.LogDebug("Failed to publish config error diagnostic: %v", publishErr)
		}
	}
}

// handleValidationError handles validation errors
func (h *ErrorHandler) handleValidationError(ctx context.Context, err *ValidationError) {
	logger.LogWarn("⚠️ Validation Error: %s", err.Error())

	if h.diagnosticPublisher != nil {
		message := fmt.Sprintf("Validation failed for '%s'", err.Field)
		if publishErr := h.diagnosticPublisher.PublishDiagnostic(ctx, err.Code, message); publishErr != nil {
			logger.LogDebug("Failed to publish validation error diagnostic: %v", publishErr)
		}
	}
}

// handleBridgeError handles generic bridge errors
func (h *ErrorHandler) handleBridgeError(ctx context.Context, err *BridgeError) {
	switch err.Severity {
	case SeverityCritical:
		logger.LogError("🔴 CRITICAL Error: %s", err.Error())
	case SeverityError:
		logger.LogError("❌ Error: %s", err.Error())
	case SeverityWarning:
		logger.LogWarn("⚠️ Warning: %s", err.Error())
	default:
		logger.LogInfo("ℹ️ Info: %s", err.Error())
	}

	if h.diagnosticPublisher != nil {
		if publishErr := h.diagnosticPublisher.PublishDiagnostic(ctx, err.Code, err.Op); publishErr != nil {
			logger.LogDebug("Failed to publish error diagnostic: %v", publishErr)
		}
	}
}

// handleGenericError handles non-typed errors
func (h *ErrorHandler) handleGenericError(ctx context.Context, err error) {
	logger.LogError("❌ Untyped Error: %v", err)

	if h.diagnosticPublisher != nil {
		if publishErr := h.diagnosticPublisher.PublishDiagnostic(ctx, 99, err.Error()); publishErr != nil {
			logger.LogDebug("Failed to publish generic error diagnostic: %v", publishErr)
		}
	}
}

// IsRecoverable returns true if the error is recoverable
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}

	switch e := err.(type) {
	case *ConfigError:
		return false // Config errors are not recoverable
	case *BridgeError:
		return e.Severity != SeverityCritical
	case *SubscriptionError:
		return e.Severity != SeverityCritical
	case *PulseError:
		return e.Severity != SeverityCritical
	case *PublishError:
		return e.Severity != SeverityCritical
	default:
		return true // Unknown errors are assumed recoverable
	}
}

// GetDiagnosticCode extracts the diagnostic code from an error
func GetDiagnosticCode(err error) int {
	if err == nil {
		return 0
	}

	switch e := err.(type) {
	case *SubscriptionError:
		return e.Code
	case *PulseError:
		return e.Code
	case *PublishError:
		return e.Code
	case *ConfigError:
		return e.Code
	case *ValidationError:
		return e.Code
	case *BridgeError:
		return e.Code
	default:
		return 99 // Generic error code
	}
}
