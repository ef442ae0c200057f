package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observers(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveBroadcast(2)
	m.ObserveBroadcast(2)
	m.ObserveSuppressed()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Broadcasts))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Deliveries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SuppressedPushes))

	m.ObserveIndicator("rsi", time.Millisecond, nil)
	m.ObserveIndicator("macd", time.Millisecond, errors.New("boom"))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.IndicatorFailures.WithLabelValues("rsi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndicatorFailures.WithLabelValues("macd")))

	m.ObserveRebuild(time.Millisecond, 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RebuildsTotal))
}

func TestNewMetrics_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) }, "duplicate registration must panic")
}

func TestHealth_DegradedUntilFeedOK(t *testing.T) {
	h := NewHealthStatus("sqlite")
	srv := NewServer(":0", prometheus.NewRegistry(), h)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.SetFeedOK(true)
	h.AddSessions(2)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "sqlite", body["feed"])
	assert.Equal(t, float64(2), body["sessions"])
}

func TestServer_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveBroadcast(1)
	srv := NewServer(":0", reg, NewHealthStatus("redis"))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "chart_viewport_broadcasts_total 1"))
}
