package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onemeter-bridge/pkg/metrics"
)

func stubHealth(state string) HealthChecker {
	return func() string { return state }
}

func TestHandleHealthzReportsState(t *testing.T) {
	s := New(Config{Enabled: false, Port: 0}, stubHealth("attached,subscribed"), metrics.NewNullMetrics())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "attached,subscribed")
}

func TestMetricsRouteDelegatesToCollector(t *testing.T) {
	collector := metrics.NewPrometheusMetrics()
	collector.IncrementPulsesAccepted()
	s := New(Config{Enabled: false, Port: 0}, stubHealth("unattached"), collector)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "onemeter_pulses_accepted_total 1")
}

func TestStartStopDisabledIsNoop(t *testing.T) {
	s := New(Config{Enabled: false, Port: 0}, stubHealth("unattached"), metrics.NewNullMetrics())
	s.Start()
	require.NoError(t, s.Stop(context.Background()))
}
