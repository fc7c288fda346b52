package metrics

import (
	"net/http"
	"time"
)

// NullMetrics is a zero-overhead no-op implementation of MetricsCollector.
// Use this when metrics are disabled (http_server.enabled = false) to avoid
// any performance overhead from metrics collection.
type NullMetrics struct{}

// NewNullMetrics creates a new NullMetrics instance.
func NewNullMetrics() *NullMetrics {
	return &NullMetrics{}
}

func (nm *NullMetrics) IncrementPulsesAccepted()                      {}
func (nm *NullMetrics) IncrementPulsesRejected()                      {}
func (nm *NullMetrics) IncrementPublishSuccesses()                    {}
func (nm *NullMetrics) IncrementPublishFailures()                     {}
func (nm *NullMetrics) SetSubscriptionStatus(subscribed bool)         {}
func (nm *NullMetrics) SetPowerKW(kw float64)                         {}
func (nm *NullMetrics) SetForecastKWh(kwh int)                        {}
func (nm *NullMetrics) ObservePublishDuration(duration time.Duration) {}

// Handler returns a handler that always responds 404, since there's nothing
// to serve.
func (nm *NullMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
}

// Compile-time verification that NullMetrics implements MetricsCollector
var _ MetricsCollector = (*NullMetrics)(nil)
