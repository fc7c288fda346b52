package metrics

import (
	"net/http"
	"time"
)

// MetricsCollector defines the interface for collecting application metrics.
// This abstraction allows for different implementations (Prometheus,
// NullMetrics) and keeps the coordinator/mqtt packages free of a direct
// dependency on the Prometheus client.
//
// Implementations:
//   - PrometheusMetrics: real counters/gauges exported over /metrics
//   - NullMetrics: zero-overhead no-op implementation when metrics are disabled
type MetricsCollector interface {
	// IncrementPulsesAccepted increments the counter for pulses that matched
	// the configured target MAC and advanced the energy counter.
	IncrementPulsesAccepted()

	// IncrementPulsesRejected increments the counter for payloads that failed
	// to decode or didn't match the target MAC.
	IncrementPulsesRejected()

	// IncrementPublishSuccesses increments the counter for successful state
	// publishes to the broker.
	IncrementPublishSuccesses()

	// IncrementPublishFailures increments the counter for failed publishes
	// (including circuit-breaker rejections).
	IncrementPublishFailures()

	// SetSubscriptionStatus sets the current pulse-topic subscription status.
	SetSubscriptionStatus(subscribed bool)

	// SetPowerKW records the most recent instantaneous power estimate.
	SetPowerKW(kw float64)

	// SetForecastKWh records the most recent month-to-date forecast.
	SetForecastKWh(kwh int)

	// ObservePublishDuration records the duration of a state publish call.
	ObservePublishDuration(duration time.Duration)

	// Handler returns the HTTP handler serving this collector's metrics in
	// Prometheus exposition format. NullMetrics returns a handler that always
	// responds 404.
	Handler() http.Handler
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector
var _ MetricsCollector = (*PrometheusMetrics)(nil)
