package coordinator

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgeerrors "onemeter-bridge/pkg/errors"
)

const testMAC = "E58D81019613"

func pulsePayload(ts int64) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"dev_list": []map[string]interface{}{
			{"mac": testMAC, "ts": ts},
		},
	})
	return b
}

type snapshotCollector struct {
	mu   sync.Mutex
	snap []Snapshot
}

func (s *snapshotCollector) observe(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = append(s.snap, snap)
}

func (s *snapshotCollector) last() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.snap) == 0 {
		return Snapshot{}, false
	}
	return s.snap[len(s.snap)-1], true
}

func (s *snapshotCollector) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snap)
}

func waitForCount(t *testing.T, c *snapshotCollector, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.count() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d snapshots, have %d", n, c.count())
}

func newTestCoordinator() *Coordinator {
	return New(Config{
		ImpulsesPerKWh:     1000,
		MaxPowerKW:         20,
		PowerAvgWindow:     2,
		PowerTimeoutSecs:   300,
		ForecastTickPeriod: time.Hour,
	}, "test-device", testMAC, 0, 0, float64(time.Now().Unix()), int(time.Now().Month()))
}

func TestCoordinatorSinglePulse(t *testing.T) {
	c := newTestCoordinator()
	collector := &snapshotCollector{}
	c.Subscribe(collector.observe)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Attach(ctx, true)

	_, err := c.HandleMessage(pulsePayload(1700000000000))
	require.NoError(t, err)

	waitForCount(t, collector, 1)
	snap, ok := collector.last()
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.Impulses)
	assert.InDelta(t, 0.001, snap.KWh, 1e-9)
	assert.Equal(t, 0.0, snap.PowerKW)
}

func TestCoordinatorTwoPulsesComputePower(t *testing.T) {
	c := newTestCoordinator()
	collector := &snapshotCollector{}
	c.Subscribe(collector.observe)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Attach(ctx, true)

	_, err := c.HandleMessage(pulsePayload(1700000000000))
	require.NoError(t, err)
	waitForCount(t, collector, 1)

	_, err = c.HandleMessage(pulsePayload(1700000001000))
	require.NoError(t, err)
	waitForCount(t, collector, 2)

	snap, _ := collector.last()
	assert.Equal(t, uint64(2), snap.Impulses)
	assert.InDelta(t, 3.6, snap.PowerKW, 1e-9)
}

func TestCoordinatorNonMatchingMACNoStateChange(t *testing.T) {
	c := newTestCoordinator()
	collector := &snapshotCollector{}
	c.Subscribe(collector.observe)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Attach(ctx, true)

	payload := pulsePayload(1700000000000)
	other, _ := json.Marshal(map[string]interface{}{
		"dev_list": []map[string]interface{}{{"mac": "000000000000", "ts": 1700000000000}},
	})

	_, err := c.HandleMessage(other)
	require.Error(t, err)
	assert.Equal(t, 0, collector.count())

	pulseErr, ok := err.(*bridgeerrors.PulseError)
	require.True(t, ok)
	assert.Equal(t, bridgeerrors.SeverityInfo, pulseErr.Severity, "an unaddressed device is a silent skip, not a warning")

	_, err = c.HandleMessage(payload)
	require.NoError(t, err)
	waitForCount(t, collector, 1)
}

func TestCoordinatorMissingTimestampWarnsNotDebug(t *testing.T) {
	c := newTestCoordinator()
	collector := &snapshotCollector{}
	c.Subscribe(collector.observe)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Attach(ctx, true)

	missingTS, _ := json.Marshal(map[string]interface{}{
		"dev_list": []map[string]interface{}{{"mac": testMAC, "ts": 0}},
	})

	_, err := c.HandleMessage(missingTS)
	require.Error(t, err)
	assert.Equal(t, 0, collector.count())

	pulseErr, ok := err.(*bridgeerrors.PulseError)
	require.True(t, ok)
	assert.Equal(t, bridgeerrors.SeverityWarning, pulseErr.Severity, "a matched record with a missing/zero ts must be dropped with a warning, per spec.md §4.1/§7")
}

func TestCoordinatorDetachPublishesOffline(t *testing.T) {
	c := newTestCoordinator()
	ctx := context.Background()
	c.Attach(ctx, true)

	var offlineCalls int
	c.Detach(func() { offlineCalls++ })
	c.Detach(func() { offlineCalls++ }) // second detach is a no-op

	assert.Equal(t, 1, offlineCalls)
	assert.Equal(t, Detaching, c.State())
}

func TestCoordinatorNotSubscribedState(t *testing.T) {
	c := newTestCoordinator()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Attach(ctx, false)

	assert.Equal(t, AttachedNotSubscribed, c.State())
	c.MarkSubscribed()
	assert.Equal(t, AttachedSubscribed, c.State())
}
