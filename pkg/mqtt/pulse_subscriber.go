package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"onemeter-bridge/pkg/config"
	bridgeerrors "onemeter-bridge/pkg/errors"
	"onemeter-bridge/pkg/logger"
)

// MessageHandler is invoked for every message received on the subscribe
// topic; typically coordinator.Coordinator.HandleMessage.
type MessageHandler func(payload []byte)

// PulseSubscriber subscribes to the inbound raw-pulse topic. Connection and
// retry logic is adapted from the teacher's gateway.USRGateway.Connect and
// onMessage, stripped of the Modbus CRC/response-matching machinery that
// doesn't apply to a JSON envelope subscription.
type PulseSubscriber struct {
	client     paho.Client
	topic      string
	qos        byte
	retryDelay time.Duration
	handler    MessageHandler
}

// NewPulseSubscriber builds a subscriber for subscribeTopic. handler is
// invoked on the paho callback goroutine for every received message.
func NewPulseSubscriber(cfg config.MQTTSettings, subscribeTopic string, handler MessageHandler) *PulseSubscriber {
	sub := &PulseSubscriber{
		topic:   subscribeTopic,
		qos:     1,
		handler: handler,
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID + "_pulse_subscriber")
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)

	keepAlive := cfg.KeepAlive
	if keepAlive == 0 {
		keepAlive = 60
	}
	opts.SetKeepAlive(time.Duration(keepAlive) * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(client paho.Client) {
		logger.LogInfo("📡 pulse subscriber connected, subscribing to %s", subscribeTopic)
		if token := client.Subscribe(subscribeTopic, sub.qos, sub.onMessage); token.Wait() && token.Error() != nil {
			logger.LogError("❌ subscribe to %s failed: %v", subscribeTopic, token.Error())
		}
	})
	opts.SetConnectionLostHandler(func(client paho.Client, err error) {
		logger.LogError("❌ pulse subscriber disconnected: %v", err)
	})

	retryDelay := time.Duration(cfg.RetryDelay) * time.Millisecond
	if retryDelay == 0 {
		retryDelay = 5 * time.Second
	}
	sub.retryDelay = retryDelay
	sub.client = paho.NewClient(opts)
	return sub
}

// Connect connects and subscribes with infinite retry. Returns a
// *bridgeerrors.SubscriptionError only when ctx is cancelled mid-retry,
// matching spec.md §4.7's "subscription failure leaves the coordinator in
// Attached,NotSubscribed" (the caller decides how to interpret a
// cancellation versus giving up).
func (s *PulseSubscriber) Connect(ctx context.Context) error {
	attempt := 1
	for {
		logger.LogDebug("🔄 connecting pulse subscriber to MQTT broker (attempt %d)...", attempt)

		if token := s.client.Connect(); token.Wait() && token.Error() != nil {
			logger.LogError("❌ pulse subscriber connection failed (attempt %d): %v", attempt, token.Error())
			select {
			case <-ctx.Done():
				return bridgeerrors.NewSubscriptionError("connect", ctx.Err(), s.topic)
			case <-time.After(s.retryDelay):
				attempt++
				continue
			}
		}

		for i := 0; i < 50; i++ {
			if s.client.IsConnected() {
				logger.LogInfo("✅ pulse subscriber connected after %d attempts", attempt)
				return nil
			}
			select {
			case <-ctx.Done():
				return bridgeerrors.NewSubscriptionError("connect", ctx.Err(), s.topic)
			case <-time.After(100 * time.Millisecond):
			}
		}

		select {
		case <-ctx.Done():
			return bridgeerrors.NewSubscriptionError("connect", ctx.Err(), s.topic)
		case <-time.After(s.retryDelay):
			attempt++
		}
	}
}

// Disconnect unsubscribes and disconnects. Idempotent: calling it on an
// already-disconnected client is a no-op, matching spec.md §5's "removes
// the subscription (idempotent)".
func (s *PulseSubscriber) Disconnect() {
	if !s.client.IsConnected() {
		return
	}
	if token := s.client.Unsubscribe(s.topic); token.Wait() && token.Error() != nil {
		logger.LogWarn("⚠️ error unsubscribing from %s: %v", s.topic, token.Error())
	}
	s.client.Disconnect(250)
}

func (s *PulseSubscriber) onMessage(client paho.Client, msg paho.Message) {
	if s.handler == nil {
		return
	}
	s.handler(msg.Payload())
}
