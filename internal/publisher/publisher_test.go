package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcarekit/vitalmon/internal/vitals"
)

type captureTransport struct {
	records []*vitals.Record
	err     error
	closed  bool
}

func (t *captureTransport) Send(_ context.Context, rec *vitals.Record) error {
	if t.err != nil {
		return t.err
	}
	t.records = append(t.records, rec)
	return nil
}

func (t *captureTransport) Close() error {
	t.closed = true
	return nil
}

type staticGate bool

func (g staticGate) Ready() bool { return bool(g) }

func TestPublishSendsRecord(t *testing.T) {
	transport := &captureTransport{}
	caps := vitals.Capabilities{Temperature: true, PulseOx: true}
	p := New(transport, "monitor-01", caps)

	var flashed bool
	WithActivityFlash(func() { flashed = true })(p)

	p.Publish(context.Background(), vitals.Snapshot{HeartRate: 72, Timestamp: 1000})

	require.Len(t, transport.records, 1)
	rec := transport.records[0]
	assert.Equal(t, "monitor-01", rec.DeviceID)
	assert.Equal(t, 72, rec.HeartRate)
	assert.Equal(t, int64(1000), rec.Timestamp)
	assert.True(t, rec.Sensors[vitals.SensorTemperature])
	assert.True(t, flashed, "a successful send flashes the indicator")
}

func TestPublishSkipsWhenGateNotReady(t *testing.T) {
	transport := &captureTransport{}
	p := New(transport, "monitor-01", vitals.Capabilities{}, WithGate(staticGate(false)))

	p.Publish(context.Background(), vitals.Snapshot{HeartRate: 72})

	assert.Empty(t, transport.records, "nothing is sent or queued while the link is down")
}

func TestPublishFailureIsSilentlyDiscarded(t *testing.T) {
	transport := &captureTransport{err: errors.New("link dropped mid-send")}

	var flashed bool
	p := New(transport, "monitor-01", vitals.Capabilities{},
		WithActivityFlash(func() { flashed = true }))

	p.Publish(context.Background(), vitals.Snapshot{HeartRate: 72})

	assert.False(t, flashed, "a failed send must not flash the indicator")

	// The next interval proceeds as if nothing happened.
	transport.err = nil
	p.Publish(context.Background(), vitals.Snapshot{HeartRate: 73})
	require.Len(t, transport.records, 1)
	assert.Equal(t, 73, transport.records[0].HeartRate)
}

func TestPublisherCloseReleasesTransport(t *testing.T) {
	transport := &captureTransport{}
	p := New(transport, "", vitals.Capabilities{})

	require.NoError(t, p.Close())
	assert.True(t, transport.closed)
}

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestSerialTransportFraming(t *testing.T) {
	var buf bufferCloser
	tr := NewSerialTransport(&buf)

	rec := vitals.NewRecord(vitals.Snapshot{HeartRate: 72, Timestamp: 5}, vitals.Capabilities{}, "")
	require.NoError(t, tr.Send(context.Background(), rec))
	require.NoError(t, tr.Send(context.Background(), rec))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2, "one record per line")

	var decoded vitals.Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, 72, decoded.HeartRate)

	require.NoError(t, tr.Close())
	assert.True(t, buf.closed)
}

func TestHTTPTransportAnyResponseIsSuccess(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(status)
		}))

		tr := NewHTTPTransport(srv.URL, 0)
		rec := vitals.NewRecord(vitals.Snapshot{}, vitals.Capabilities{}, "monitor-01")
		assert.NoError(t, tr.Send(context.Background(), rec), "status %d is still a delivered response", status)

		_ = tr.Close()
		srv.Close()
	}
}

func TestHTTPTransportDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing listens anymore

	tr := NewHTTPTransport(srv.URL, 0)
	rec := vitals.NewRecord(vitals.Snapshot{}, vitals.Capabilities{}, "")
	assert.Error(t, tr.Send(context.Background(), rec))
}
