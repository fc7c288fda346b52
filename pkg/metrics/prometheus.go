package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics tracks application metrics using real prometheus client
// collectors, replacing the teacher's hand-templated text/plain exporter.
type PrometheusMetrics struct {
	pulsesAccepted   prometheus.Counter
	pulsesRejected   prometheus.Counter
	publishSuccesses prometheus.Counter
	publishFailures  prometheus.Counter
	subscribed       prometheus.Gauge
	powerKW          prometheus.Gauge
	forecastKWh      prometheus.Gauge
	publishDuration  prometheus.Histogram

	registry *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics collector registered
// against its own private registry (so multiple test instances don't collide
// on the default global registry).
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		pulsesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "onemeter_pulses_accepted_total",
			Help: "Total number of pulse frames that matched the target MAC and advanced the counter.",
		}),
		pulsesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "onemeter_pulses_rejected_total",
			Help: "Total number of pulse frames that failed to decode or didn't match the target MAC.",
		}),
		publishSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "onemeter_publish_successes_total",
			Help: "Total number of successful MQTT state publishes.",
		}),
		publishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "onemeter_publish_failures_total",
			Help: "Total number of failed MQTT state publishes, including circuit-breaker rejections.",
		}),
		subscribed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_subscribed",
			Help: "1 if currently subscribed to the pulse topic, 0 otherwise.",
		}),
		powerKW: factory.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_power_kw",
			Help: "Most recent instantaneous power estimate in kW.",
		}),
		forecastKWh: factory.NewGauge(prometheus.GaugeOpts{
			Name: "onemeter_forecast_kwh",
			Help: "Most recent month-to-date forecast in kWh.",
		}),
		publishDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "onemeter_publish_duration_seconds",
			Help:    "Duration of MQTT state publish calls.",
			Buckets: prometheus.DefBuckets,
		}),
		registry: reg,
	}
}

func (pm *PrometheusMetrics) IncrementPulsesAccepted()   { pm.pulsesAccepted.Inc() }
func (pm *PrometheusMetrics) IncrementPulsesRejected()   { pm.pulsesRejected.Inc() }
func (pm *PrometheusMetrics) IncrementPublishSuccesses() { pm.publishSuccesses.Inc() }
func (pm *PrometheusMetrics) IncrementPublishFailures()  { pm.publishFailures.Inc() }

func (pm *PrometheusMetrics) SetSubscriptionStatus(subscribed bool) {
	if subscribed {
		pm.subscribed.Set(1)
	} else {
		pm.subscribed.Set(0)
	}
}

func (pm *PrometheusMetrics) SetPowerKW(kw float64)      { pm.powerKW.Set(kw) }
func (pm *PrometheusMetrics) SetForecastKWh(kwh int)     { pm.forecastKWh.Set(float64(kwh)) }
func (pm *PrometheusMetrics) ObservePublishDuration(d time.Duration) {
	pm.publishDuration.Observe(d.Seconds())
}

// Handler returns the promhttp handler bound to this collector's private
// registry.
func (pm *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{})
}
