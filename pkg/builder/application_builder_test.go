package builder

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onemeter-bridge/pkg/config"
	bridgeerrors "onemeter-bridge/pkg/errors"
	bridgemqtt "onemeter-bridge/pkg/mqtt"
)

type recordingDiagnostics struct {
	mu    sync.Mutex
	codes []int
}

func (r *recordingDiagnostics) PublishDiagnostic(ctx context.Context, code int, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
	return nil
}

func (r *recordingDiagnostics) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.codes)
}

type fakeSubscriber struct {
	connectErr error
	connected  bool
}

func (f *fakeSubscriber) Connect(ctx context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeSubscriber) Disconnect() { f.connected = false }

type fakePublisher struct {
	mu         sync.Mutex
	connected  bool
	states     []bridgemqtt.StateMessage
	online     int
	offline    int
	publishErr error
}

func (f *fakePublisher) Connect(ctx context.Context) error {
	f.connected = true
	return nil
}
func (f *fakePublisher) Disconnect() { f.connected = false }
func (f *fakePublisher) PublishState(ctx context.Context, msg bridgemqtt.StateMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.states = append(f.states, msg)
	return nil
}
func (f *fakePublisher) PublishOnline(ctx context.Context) error {
	f.online++
	return nil
}
func (f *fakePublisher) PublishOffline(ctx context.Context) error {
	f.offline++
	return nil
}

func testDevice() config.DeviceMeta {
	return config.DeviceMeta{
		DeviceID:           "om9613",
		TargetMAC:          "E58D81019613",
		SubscribeTopic:     "onemeter/s10/v1",
		ImpulsesPerKWh:     1000,
		MaxPowerKW:         20,
		PowerAverageWindow: 2,
		PowerTimeoutSecs:   300,
	}
}

func TestApplicationBuilder_BuildRequiresDeviceID(t *testing.T) {
	_, err := NewApplicationBuilder(config.DeviceMeta{}, config.MQTTSettings{}).Build()
	require.Error(t, err)
}

func TestApplicationBuilder_StartAttachesSubscribed(t *testing.T) {
	sub := &fakeSubscriber{}
	pub := &fakePublisher{}

	app, err := NewApplicationBuilder(testDevice(), config.MQTTSettings{}).
		WithSubscriber(sub).
		WithPublisher(pub).
		Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx))
	assert.True(t, sub.connected)
	assert.True(t, pub.connected)
	assert.Equal(t, "attached,subscribed", app.Coordinator().State().String())

	app.Stop()
	assert.Equal(t, 1, pub.offline)
	assert.False(t, sub.connected)
	assert.False(t, pub.connected)

	app.Stop()
	assert.Equal(t, 1, pub.offline)
}

func TestApplicationBuilder_PublishFailureRoutesThroughErrorHandler(t *testing.T) {
	sub := &fakeSubscriber{}
	pub := &fakePublisher{publishErr: bridgeerrors.NewPublishError("publish_state", assert.AnError, "tcp://localhost:1883")}
	diag := &recordingDiagnostics{}

	app, err := NewApplicationBuilder(testDevice(), config.MQTTSettings{}).
		WithSubscriber(sub).
		WithPublisher(pub).
		WithErrorHandler(bridgeerrors.NewErrorHandler(diag)).
		Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx))

	device := testDevice()
	payload, _ := json.Marshal(map[string]interface{}{
		"dev_list": []map[string]interface{}{{"mac": device.TargetMAC, "ts": time.Now().UnixMilli()}},
	})
	_, err = app.Coordinator().HandleMessage(payload)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return diag.count() > 0 }, time.Second, 5*time.Millisecond)
}

func TestApplicationBuilder_StartLeavesUnsubscribedOnSubscribeFailure(t *testing.T) {
	sub := &fakeSubscriber{connectErr: assert.AnError}
	pub := &fakePublisher{}

	app, err := NewApplicationBuilder(testDevice(), config.MQTTSettings{}).
		WithSubscriber(sub).
		WithPublisher(pub).
		Build()
	require.NoError(t, err)

	require.NoError(t, app.Start(context.Background()))
	assert.Equal(t, "attached,not_subscribed", app.Coordinator().State().String())
}
