// Package builder provides a fluent constructor for wiring one configured
// OneMeter device into a running coordinator + subscriber + publisher +
// entity set, ported from the teacher's ApplicationBuilder (dependency
// injection via optional With* overrides, sane defaults on Build).
package builder

import (
	"context"
	"fmt"
	"time"

	"onemeter-bridge/pkg/config"
	"onemeter-bridge/pkg/coordinator"
	"onemeter-bridge/pkg/entity"
	bridgeerrors "onemeter-bridge/pkg/errors"
	"onemeter-bridge/pkg/logger"
	"onemeter-bridge/pkg/metrics"
	bridgemqtt "onemeter-bridge/pkg/mqtt"
	"onemeter-bridge/pkg/restore"
)

// SubscriberInterface is the contract PulseSubscriber satisfies. Enables
// mocking and testing, same role as the teacher's GatewayInterface.
type SubscriberInterface interface {
	Connect(ctx context.Context) error
	Disconnect()
}

// PublisherInterface is the contract StatePublisher satisfies.
type PublisherInterface interface {
	Connect(ctx context.Context) error
	Disconnect()
	PublishState(ctx context.Context, msg bridgemqtt.StateMessage) error
	PublishOnline(ctx context.Context) error
	PublishOffline(ctx context.Context) error
}

// ApplicationBuilder assembles one Device's coordinator, subscriber,
// publisher, and entity views. Following Builder pattern to enable
// dependency injection and improve testability.
type ApplicationBuilder struct {
	device     config.DeviceMeta
	mqtt       config.MQTTSettings
	snapshot   restore.SnapshotReader
	metrics    metrics.MetricsCollector
	subscriber SubscriberInterface
	publisher  PublisherInterface
	errHandler *bridgeerrors.ErrorHandler
	coord      *coordinator.Coordinator
}

// NewApplicationBuilder creates a new builder for the given device and
// broker settings.
func NewApplicationBuilder(device config.DeviceMeta, mqttSettings config.MQTTSettings) *ApplicationBuilder {
	return &ApplicationBuilder{device: device, mqtt: mqttSettings}
}

// WithSnapshotReader overrides the restore-channel source (defaults to
// restore.NullSnapshotReader{} — falls back to initial_kwh).
func (b *ApplicationBuilder) WithSnapshotReader(r restore.SnapshotReader) *ApplicationBuilder {
	b.snapshot = r
	return b
}

// WithMetrics overrides the metrics collector (defaults to NullMetrics).
func (b *ApplicationBuilder) WithMetrics(m metrics.MetricsCollector) *ApplicationBuilder {
	b.metrics = m
	return b
}

// WithSubscriber overrides the pulse subscriber (for tests).
func (b *ApplicationBuilder) WithSubscriber(s SubscriberInterface) *ApplicationBuilder {
	b.subscriber = s
	return b
}

// WithPublisher overrides the state publisher (for tests).
func (b *ApplicationBuilder) WithPublisher(p PublisherInterface) *ApplicationBuilder {
	b.publisher = p
	return b
}

// WithErrorHandler overrides the error dispatcher (defaults to one with no
// diagnostic publisher — this domain has no MQTT diagnostics topic).
func (b *ApplicationBuilder) WithErrorHandler(h *bridgeerrors.ErrorHandler) *ApplicationBuilder {
	b.errHandler = h
	return b
}

// Build constructs the Application, restoring state and wiring the
// coordinator's observer fan-out to the state publisher and metrics.
// Creates default implementations for any missing dependencies.
func (b *ApplicationBuilder) Build() (*Application, error) {
	if b.device.DeviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}

	if b.snapshot == nil {
		b.snapshot = restore.NullSnapshotReader{}
	}
	if b.metrics == nil {
		b.metrics = metrics.NewNullMetrics()
	}
	if b.errHandler == nil {
		b.errHandler = bridgeerrors.NewErrorHandler(nil)
	}

	totalImpulses, monthBaseline, monthStart := restore.Restore(context.Background(), b.snapshot, restore.Config{
		ImpulsesPerKWh:  b.device.ImpulsesPerKWh,
		InitialKWh:      b.device.InitialKWh,
		MonthlyUsageKWh: b.device.MonthlyUsageKWh,
	})

	coord := coordinator.New(
		coordinator.Config{
			ImpulsesPerKWh:   b.device.ImpulsesPerKWh,
			MaxPowerKW:       b.device.MaxPowerKW,
			PowerAvgWindow:   b.device.PowerAverageWindow,
			PowerTimeoutSecs: b.device.PowerTimeoutSecs,
		},
		b.device.DeviceID,
		b.device.TargetMAC,
		totalImpulses,
		monthBaseline,
		float64(monthStart.Unix()),
		int(monthStart.Month()),
	)
	b.coord = coord

	if b.subscriber == nil {
		b.subscriber = bridgemqtt.NewPulseSubscriber(b.mqtt, b.device.SubscribeTopic, func(payload []byte) {
			if _, err := coord.HandleMessage(payload); err != nil {
				b.metrics.IncrementPulsesRejected()
				b.errHandler.Handle(context.Background(), err)
				return
			}
			b.metrics.IncrementPulsesAccepted()
		})
	}
	if b.publisher == nil {
		b.publisher = bridgemqtt.NewStatePublisher(b.mqtt, b.device.DeviceID)
	}

	energy := entity.NewEnergy(b.device.DeviceID)
	power := entity.NewPower(b.device.DeviceID)
	forecast := entity.NewForecast(b.device.DeviceID)

	publisher := b.publisher
	met := b.metrics
	errHandler := b.errHandler
	coord.Subscribe(func(snap coordinator.Snapshot) {
		met.SetPowerKW(power.Value(snap))
		met.SetForecastKWh(forecast.Value(snap))
		met.SetSubscriptionStatus(snap.Subscribed)

		msg := bridgemqtt.StateMessage{
			Timestamp:   time.Unix(int64(snap.WallNow), 0).UTC().Format("2006-01-02 15:04:05"),
			Impulses:    int64(snap.Impulses),
			KWh:         energy.Value(snap),
			PowerKW:     power.Value(snap),
			ForecastKWh: forecast.Value(snap),
		}
		if err := publisher.PublishState(context.Background(), msg); err != nil {
			met.IncrementPublishFailures()
			errHandler.Handle(context.Background(), err)
			return
		}
		met.IncrementPublishSuccesses()
	})

	return &Application{
		device:     b.device,
		coord:      coord,
		subscriber: b.subscriber,
		publisher:  b.publisher,
		energy:     energy,
		power:      power,
		forecast:   forecast,
	}, nil
}

// Application is one fully wired OneMeter device: its coordinator, MQTT
// subscriber/publisher, and entity views.
type Application struct {
	device     config.DeviceMeta
	coord      *coordinator.Coordinator
	subscriber SubscriberInterface
	publisher  PublisherInterface
	energy     *entity.Energy
	power      *entity.Power
	forecast   *entity.Forecast
}

// Coordinator returns the device's coordinator.
func (a *Application) Coordinator() *coordinator.Coordinator { return a.coord }

// Energy returns the Energy entity view.
func (a *Application) Energy() *entity.Energy { return a.energy }

// Power returns the Power entity view.
func (a *Application) Power() *entity.Power { return a.power }

// Forecast returns the Forecast entity view.
func (a *Application) Forecast() *entity.Forecast { return a.forecast }

// Start connects the publisher and subscriber and attaches the coordinator,
// matching spec.md §4.7's attach/subscribe sequencing: the presence/state
// publisher connects first (so "online" can be published), then the pulse
// subscriber attempts to connect; failure there leaves the coordinator in
// Attached,NotSubscribed rather than failing the whole device.
func (a *Application) Start(ctx context.Context) error {
	if err := a.publisher.Connect(ctx); err != nil {
		return fmt.Errorf("device %s: publisher connect: %w", a.device.DeviceID, err)
	}

	subscribed := true
	if err := a.subscriber.Connect(ctx); err != nil {
		logger.LogError("❌ device %s: subscriber connect failed, entities will be unavailable: %v", a.device.DeviceID, err)
		subscribed = false
	}

	a.coord.Attach(ctx, subscribed)
	if subscribed {
		a.coord.MarkSubscribed()
	}
	return nil
}

// Stop detaches the coordinator (publishing "offline") and disconnects both
// MQTT clients. A second Stop is a no-op (coordinator.Detach is idempotent).
func (a *Application) Stop() {
	a.coord.Detach(func() {
		if err := a.publisher.PublishOffline(context.Background()); err != nil {
			logger.LogWarn("⚠️ device %s: error publishing offline status: %v", a.device.DeviceID, err)
		}
	})
	a.subscriber.Disconnect()
	a.publisher.Disconnect()
}
