package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcarekit/vitalmon/internal/vitals"
)

type serverFixture struct {
	srv     *httptest.Server
	metrics *Metrics
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	store := newTestStore(t)
	sessionID, err := store.CreateSession(context.Background())
	require.NoError(t, err)

	metrics := NewMetrics(prometheus.NewRegistry())
	server := NewServer(store, sessionID, WithMetrics(metrics))

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	return &serverFixture{srv: srv, metrics: metrics}
}

func (f *serverFixture) post(t *testing.T, body []byte) *http.Response {
	t.Helper()

	resp, err := http.Post(f.srv.URL+"/api/vitals", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func (f *serverFixture) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestReceiveAndLatest(t *testing.T) {
	f := newServerFixture(t)

	rec := vitals.NewRecord(vitals.Snapshot{
		HeartRate:         72,
		OxygenSaturation:  98,
		Temperature:       36.6,
		BPSystolic:        120,
		BPDiastolic:       80,
		RespiratoryRate:   16,
		ECGValue:          512,
		ECGLeadsConnected: true,
		Timestamp:         1000,
	}, vitals.Capabilities{Temperature: true, PulseOx: true}, "monitor-01")

	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	resp := f.post(t, payload)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	code, body := f.get(t, "/api/vitals/latest")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	stored, ok := data["data"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, float64(72), stored["hr"])
	assert.Equal(t, float64(98), stored["spo2"])
	assert.Equal(t, 36.6, stored["temp"])
	assert.Equal(t, float64(120), stored["bp_sys"])
	assert.Equal(t, float64(80), stored["bp_dia"])
	assert.Equal(t, float64(16), stored["rr"])
	assert.Equal(t, float64(512), stored["ecg"])
	assert.Equal(t, true, stored["ecg_leads"])
	assert.Equal(t, float64(1000), stored["timestamp"])
	assert.Equal(t, "monitor-01", stored["device_id"])

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ReadingsReceived))
	assert.Equal(t, float64(72), testutil.ToFloat64(f.metrics.LastHeartRate))
	assert.Equal(t, float64(98), testutil.ToFloat64(f.metrics.LastSpO2))
}

func TestLatestBeforeAnyReading(t *testing.T) {
	f := newServerFixture(t)

	code, body := f.get(t, "/api/vitals/latest")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "no_data", body["status"])
}

func TestReceiveMalformedRecord(t *testing.T) {
	f := newServerFixture(t)

	resp := f.post(t, []byte("{not json"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.ReadingsRejected))
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.ReadingsReceived))
}

func TestHistoryEndpoint(t *testing.T) {
	f := newServerFixture(t)

	for i := 0; i < 4; i++ {
		rec := sampleRecord(70+i, int64(1000+i))
		payload, err := json.Marshal(rec)
		require.NoError(t, err)
		resp := f.post(t, payload)
		resp.Body.Close()
	}

	code, body := f.get(t, "/api/vitals/history?limit=2")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["count"])

	data, ok := body["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 2)

	code, _ = f.get(t, "/api/vitals/history?limit=bogus")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.get(t, "/api/vitals/history?limit=-1")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStatusEndpoint(t *testing.T) {
	f := newServerFixture(t)

	code, body := f.get(t, "/api/status")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, float64(0), body["total_readings"])
	assert.NotEmpty(t, body["session_id"])
	assert.NotContains(t, body, "latest_reading_time")

	payload, err := json.Marshal(sampleRecord(72, 1000))
	require.NoError(t, err)
	resp := f.post(t, payload)
	resp.Body.Close()

	code, body = f.get(t, "/api/status")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["total_readings"])
	assert.Contains(t, body, "latest_reading_time")
	assert.Equal(t, "monitor-01", body["device_id"])
}

func TestHomeEndpoint(t *testing.T) {
	f := newServerFixture(t)

	code, body := f.get(t, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "online", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newServerFixture(t)

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
