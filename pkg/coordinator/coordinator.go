// Package coordinator implements the single-writer state machine that owns
// the pulse counter, power estimator, and forecast engine, serializing
// pulse events and the periodic forecast tick onto one goroutine and
// fanning out snapshots to observers.
package coordinator

import (
	"context"
	"sync"
	"time"

	bridgeerrors "onemeter-bridge/pkg/errors"
	"onemeter-bridge/pkg/logger"
	"onemeter-bridge/pkg/meter"
	"onemeter-bridge/pkg/pulse"
)

// Config carries the subset of device configuration the coordinator needs
// to drive the meter packages.
type Config struct {
	ImpulsesPerKWh     int
	MaxPowerKW         float64
	PowerAvgWindow     int
	PowerTimeoutSecs   int
	ForecastTickPeriod time.Duration // default one hour, per spec.md §4.7
}

// Observer is invoked in-loop after every state mutation (spec.md §9
// "Observer fan-out").
type Observer func(Snapshot)

// Coordinator is the sole writer of runtime meter state. All mutation
// happens on the command channel drained by run(); callers never touch
// counters directly.
type Coordinator struct {
	cfg Config

	counter   *meter.Counter
	power     *meter.PowerEstimator
	forecast  *meter.ForecastEngine
	decoder   *pulse.Decoder
	deviceID  string
	targetMAC string

	lastImpulseTime float64

	mu        sync.RWMutex
	state     State
	observers []Observer

	commands chan command
	done     chan struct{}
	cancel   context.CancelFunc
}

type command struct {
	pulse *pulse.PulseEvent
	tick  bool
}

// New constructs a Coordinator seeded with the restored counter/baseline.
// deviceID is carried only for diagnostic context on decode errors.
func New(cfg Config, deviceID, targetMAC string, seedImpulses, monthStartImpulses uint64, monthStartTimestamp float64, monthChecked int) *Coordinator {
	if cfg.ForecastTickPeriod == 0 {
		cfg.ForecastTickPeriod = time.Hour
	}
	return &Coordinator{
		cfg:       cfg,
		counter:   meter.NewCounter(seedImpulses),
		power:     meter.NewPowerEstimator(cfg.PowerAvgWindow),
		forecast:  meter.NewForecastEngine(monthStartImpulses, monthStartTimestamp, monthChecked),
		decoder:   pulse.NewDecoder(),
		deviceID:  deviceID,
		targetMAC: targetMAC,
		state:     Unattached,
		commands:  make(chan command, 64),
		done:      make(chan struct{}),
	}
}

// Subscribe registers an observer invoked after every mutation. Register
// before Attach so no snapshot is missed; Attach itself publishes none.
func (c *Coordinator) Subscribe(obs Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, obs)
}

// Attach starts the coordinator's run loop and marks it subscribed or
// not-subscribed depending on subscribed, exactly matching spec.md §4.7's
// "subscription failure leaves the coordinator in Attached,NotSubscribed".
func (c *Coordinator) Attach(ctx context.Context, subscribed bool) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.mu.Lock()
	if subscribed {
		c.state = AttachedSubscribed
	} else {
		c.state = AttachedNotSubscribed
	}
	c.mu.Unlock()

	go c.run(runCtx)
}

// MarkSubscribed transitions Attached,NotSubscribed -> Attached,Subscribed
// once a deferred subscribe attempt succeeds.
func (c *Coordinator) MarkSubscribed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == AttachedNotSubscribed {
		c.state = AttachedSubscribed
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// HandleMessage decodes an inbound MQTT payload and, if it yields a pulse
// for the configured MAC, enqueues it onto the command channel. Decode
// errors are returned wrapped as a *errors.PulseError carrying device
// context; the caller (builder's ErrorHandler) dispatches by severity.
func (c *Coordinator) HandleMessage(payload []byte) (pulse.PulseEvent, error) {
	evt, err := c.decoder.Decode(payload, c.targetMAC)
	if err != nil {
		return pulse.PulseEvent{}, bridgeerrors.WrapPulseError(c.deviceID, err)
	}
	select {
	case c.commands <- command{pulse: &evt}:
	default:
		logger.LogWarn("⚠️ coordinator command queue full, dropping pulse at t=%f", evt.Timestamp)
	}
	return evt, nil
}

// Detach cancels the forecast ticker, stops the run loop, and publishes
// "offline" via the supplied callback. A second Detach is a no-op.
func (c *Coordinator) Detach(onOffline func()) {
	c.mu.Lock()
	if c.state == Detaching || c.state == Unattached {
		c.mu.Unlock()
		return
	}
	c.state = Detaching
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	<-c.done

	if onOffline != nil {
		onOffline()
	}
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.ForecastTickPeriod)
	defer ticker.Stop()

	logger.LogInfo("🔄 coordinator loop started (forecast tick: %v)", c.cfg.ForecastTickPeriod)

	for {
		select {
		case <-ctx.Done():
			logger.LogDebug("🔄 coordinator loop stopped")
			return
		case <-ticker.C:
			c.handleTick()
		case cmd := <-c.commands:
			if cmd.pulse != nil {
				c.handlePulse(*cmd.pulse)
			}
		}
	}
}

func (c *Coordinator) handlePulse(evt pulse.PulseEvent) {
	total := c.counter.Accept()
	c.power.Observe(evt.Timestamp, c.cfg.ImpulsesPerKWh, c.cfg.MaxPowerKW)
	c.lastImpulseTime = evt.Timestamp
	c.forecast.Advance(evt.Timestamp, total, c.cfg.ImpulsesPerKWh)

	c.publish(evt.Timestamp)
}

func (c *Coordinator) handleTick() {
	now := float64(time.Now().Unix())
	c.forecast.Advance(now, c.counter.Total(), c.cfg.ImpulsesPerKWh)
	c.publish(now)
}

func (c *Coordinator) publish(wallNow float64) {
	snap := Snapshot{
		Impulses:            c.counter.Total(),
		KWh:                 c.counter.KWh(c.cfg.ImpulsesPerKWh),
		PowerKW:             c.power.Read(wallNow, c.lastImpulseTime, c.cfg.PowerTimeoutSecs),
		ForecastKWh:         c.forecast.LatestForecastKWh(),
		MonthStartImpulses:  c.forecast.MonthStartImpulses(),
		LastMonthChecked:    c.forecast.LastMonthChecked(),
		MonthStartTimestamp: c.forecast.MonthStartTimestamp(),
		LastImpulseTime:     c.lastImpulseTime,
		WallNow:             wallNow,
		Subscribed:          c.State() == AttachedSubscribed,
	}

	c.mu.RLock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.RUnlock()

	for _, obs := range observers {
		obs(snap)
	}
}
