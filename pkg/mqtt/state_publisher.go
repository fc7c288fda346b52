package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"onemeter-bridge/pkg/config"
	bridgeerrors "onemeter-bridge/pkg/errors"
	"onemeter-bridge/pkg/logger"
)

// StateMessage is the consolidated processed-state payload published after
// every accepted pulse (spec.md §4.6).
type StateMessage struct {
	Timestamp   string  `json:"timestamp"`
	Impulses    int64   `json:"impulses"`
	KWh         float64 `json:"kwh"`
	PowerKW     float64 `json:"power_kw"`
	ForecastKWh int     `json:"forecast_kwh"`
}

// StatePublisher publishes consolidated state and manages the retained
// presence topic. Grounded on the teacher's mqtt.Publisher (NewPublisher's
// broker/will/on-connect wiring) and energy_topic.go's marshal-then-publish
// PublishState shape, with publish failures routed through a
// sony/gobreaker circuit breaker instead of the teacher's hand-rolled one.
type StatePublisher struct {
	client         paho.Client
	breaker        *gobreaker.CircuitBreaker
	reconnectLimit *rate.Limiter
	deviceID       string
	stateTopic     string
	statusTopic    string
	qos            byte
	retryDelay     time.Duration
}

// NewStatePublisher builds a publisher for the given device, wired with a
// last-will on the presence topic so involuntary disconnects mark the
// device offline even without an explicit Detach (spec.md §4.6, §9).
func NewStatePublisher(cfg config.MQTTSettings, deviceID string) *StatePublisher {
	stateTopic := fmt.Sprintf("onemeter/energy/%s/state", deviceID)
	statusTopic := fmt.Sprintf("onemeter/energy/%s/status", deviceID)

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID + "_state_publisher")
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)

	keepAlive := cfg.KeepAlive
	if keepAlive == 0 {
		keepAlive = 60
	}
	opts.SetKeepAlive(time.Duration(keepAlive) * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetWill(statusTopic, "offline", 1, true)

	// A flapping broker connection can trigger OnConnectHandler many times a
	// second; rate-limit the reconnect-triggered "online" republish so a
	// flapping link doesn't flood the broker with retained publishes.
	reconnectLimit := rate.NewLimiter(rate.Every(time.Second), 1)

	opts.SetOnConnectHandler(func(client paho.Client) {
		logger.LogInfo("📡 state publisher connected to MQTT broker")
		if !reconnectLimit.Allow() {
			logger.LogDebug("🔕 reconnect online-republish throttled for %s", statusTopic)
			return
		}
		if token := client.Publish(statusTopic, 1, true, "online"); token.Wait() && token.Error() != nil {
			logger.LogWarn("⚠️ error publishing online status on connect: %v", token.Error())
		}
	})
	opts.SetConnectionLostHandler(func(client paho.Client, err error) {
		logger.LogError("❌ state publisher disconnected: %v", err)
	})

	retryDelay := time.Duration(cfg.RetryDelay) * time.Millisecond
	if retryDelay == 0 {
		retryDelay = 5 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "state-publisher",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &StatePublisher{
		client:         paho.NewClient(opts),
		breaker:        breaker,
		reconnectLimit: reconnectLimit,
		deviceID:       deviceID,
		stateTopic:     stateTopic,
		statusTopic:    statusTopic,
		qos:            1,
		retryDelay:     retryDelay,
	}
}

// Connect connects with infinite retry, grounded on the teacher's
// Publisher.Connect.
func (p *StatePublisher) Connect(ctx context.Context) error {
	attempt := 1
	for {
		logger.LogDebug("🔄 connecting state publisher to MQTT broker (attempt %d)...", attempt)

		if token := p.client.Connect(); token.Wait() && token.Error() != nil {
			logger.LogError("❌ state publisher connection failed (attempt %d): %v", attempt, token.Error())
			select {
			case <-ctx.Done():
				return fmt.Errorf("state publisher connection cancelled: %w", ctx.Err())
			case <-time.After(p.retryDelay):
				attempt++
				continue
			}
		}

		for i := 0; i < 50; i++ {
			if p.client.IsConnected() {
				logger.LogInfo("✅ state publisher connected after %d attempts", attempt)
				return nil
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("state publisher connection cancelled during establishment: %w", ctx.Err())
			case <-time.After(100 * time.Millisecond):
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("state publisher connection cancelled: %w", ctx.Err())
		case <-time.After(p.retryDelay):
			attempt++
		}
	}
}

// Disconnect cleanly disconnects the underlying client.
func (p *StatePublisher) Disconnect() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// PublishState marshals and publishes msg to the state topic at QoS 1,
// retained, routed through the circuit breaker so a wedged broker
// connection fails fast instead of blocking the coordinator loop. Failures
// are returned as *errors.PublishError (spec.md §7: "state is not rolled
// back") for the caller's ErrorHandler to log and dispatch.
func (p *StatePublisher) PublishState(ctx context.Context, msg StateMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return bridgeerrors.NewPublishError("marshal_state", err, p.stateTopic)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		token := p.client.Publish(p.stateTopic, p.qos, true, payload)
		if token.Wait() && token.Error() != nil {
			return nil, token.Error()
		}
		return nil, nil
	})
	if err != nil {
		pubErr := bridgeerrors.NewPublishError("publish_state", err, p.stateTopic)
		pubErr.Topic = p.stateTopic
		pubErr.QoS = p.qos
		return pubErr
	}
	return nil
}

// PublishOnline publishes the retained "online" presence payload.
func (p *StatePublisher) PublishOnline(ctx context.Context) error {
	return p.publishPresence("online")
}

// PublishOffline publishes the retained "offline" presence payload.
func (p *StatePublisher) PublishOffline(ctx context.Context) error {
	return p.publishPresence("offline")
}

func (p *StatePublisher) publishPresence(payload string) error {
	token := p.client.Publish(p.statusTopic, 1, true, payload)
	if token.Wait() && token.Error() != nil {
		return bridgeerrors.NewPublishError("publish_presence", token.Error(), p.statusTopic)
	}
	return nil
}
