package sampler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcarekit/vitalmon/internal/sensor"
	"github.com/healthcarekit/vitalmon/internal/sensor/hal"
	"github.com/healthcarekit/vitalmon/internal/vitals"
)

// scriptClock is a manually advanced millisecond clock.
type scriptClock struct {
	ms int64
}

func (c *scriptClock) Millis() int64 { return c.ms }

type rig struct {
	thermometer *sensor.SimThermometer
	hrLine      *hal.SimAnalog
	spo2Line    *hal.SimAnalog
	bpLine      *hal.SimAnalog
	rrLine      *hal.SimAnalog
	ecgLine     *hal.SimAnalog
	loPlus      *hal.SimDigital
	loMinus     *hal.SimDigital
	clock       *scriptClock
	sampler     *Sampler
}

// newRig wires a healthy simulated board: 72 bpm, 98%, 36.6C, 120/80 mmHg,
// 16 brpm, leads attached.
func newRig(t *testing.T) *rig {
	t.Helper()

	r := rig{
		thermometer: &sensor.SimThermometer{Present: true, Celsius: 36.6},
		hrLine:      hal.NewSimAnalog(72),
		spo2Line:    hal.NewSimAnalog(98),
		bpLine:      hal.NewSimAnalog(1638),
		rrLine:      hal.NewSimAnalog(1927),
		ecgLine:     hal.NewSimAnalog(512),
		loPlus:      hal.NewSimDigital(false),
		loMinus:     hal.NewSimDigital(false),
		clock:       &scriptClock{ms: 1000},
	}

	r.sampler = New(
		r.thermometer,
		&sensor.MAX30100{HR: r.hrLine, SpO2: r.spo2Line},
		newProxy(r.bpLine, true),
		newProxy(r.rrLine, false),
		&sensor.AD8232{Signal: r.ecgLine, LOPlus: r.loPlus, LOMinus: r.loMinus},
		r.clock,
	)
	return &r
}

func newProxy(line *hal.SimAnalog, bloodPressure bool) *sensor.AnalogProxy {
	p := sensor.AnalogProxy{Channel: line}
	if bloodPressure {
		p.Calibration = vitals.DefaultBPCalibration()
	} else {
		p.Calibration = vitals.DefaultRespirationCalibration()
	}
	return &p
}

func TestSampleOnceHealthyBoard(t *testing.T) {
	r := newRig(t)
	r.sampler.Init()

	caps := r.sampler.Capabilities()
	require.True(t, caps.Temperature)
	require.True(t, caps.PulseOx)

	snap := r.sampler.SampleOnce()
	assert.Equal(t, 72, snap.HeartRate)
	assert.Equal(t, 98, snap.OxygenSaturation)
	assert.Equal(t, 36.6, snap.Temperature)
	assert.Equal(t, 120, snap.BPSystolic)
	assert.Equal(t, 80, snap.BPDiastolic)
	assert.Equal(t, 16, snap.RespiratoryRate)
	assert.Equal(t, 512, snap.ECGValue)
	assert.True(t, snap.ECGLeadsConnected)
	assert.Equal(t, int64(1000), snap.Timestamp)
}

func TestSampleOnceFiltersImplausibleReadings(t *testing.T) {
	r := newRig(t)
	r.sampler.Init()

	r.hrLine.SetValue(250)  // above plausible
	r.spo2Line.SetValue(50) // below plausible

	snap := r.sampler.SampleOnce()
	assert.Zero(t, snap.HeartRate)
	assert.Zero(t, snap.OxygenSaturation)

	// Other channels are untouched by the pulse-ox filters.
	assert.Equal(t, 120, snap.BPSystolic)
}

func TestAbsentPulseOximeterZeroesSession(t *testing.T) {
	r := newRig(t)
	r.hrLine.Fail(errors.New("no device"))
	r.sampler.Init()

	require.False(t, r.sampler.Capabilities().PulseOx)

	// Restore the line; an absent device must stay absent for the session.
	r.hrLine.Fail(nil)
	r.hrLine.SetValue(72)

	for i := 0; i < 3; i++ {
		snap := r.sampler.SampleOnce()
		assert.Zero(t, snap.HeartRate)
		assert.Zero(t, snap.OxygenSaturation)
	}
}

func TestAbsentThermometerZeroesSession(t *testing.T) {
	r := newRig(t)
	r.thermometer.Present = false
	r.sampler.Init()

	require.False(t, r.sampler.Capabilities().Temperature)

	snap := r.sampler.SampleOnce()
	assert.Zero(t, snap.Temperature)
}

func TestFailedBloodPressureReadZeroesBothFields(t *testing.T) {
	r := newRig(t)
	r.sampler.Init()

	r.bpLine.Fail(errors.New("bus error"))

	snap := r.sampler.SampleOnce()
	assert.Zero(t, snap.BPSystolic)
	assert.Zero(t, snap.BPDiastolic, "diastolic must not be derived from a failed systolic read")

	// The failure degrades this snapshot only.
	r.bpLine.Fail(nil)
	snap = r.sampler.SampleOnce()
	assert.Equal(t, 120, snap.BPSystolic)
	assert.Equal(t, 80, snap.BPDiastolic)
}

func TestDiastolicTracksSystolicAtDomainEdges(t *testing.T) {
	r := newRig(t)
	r.sampler.Init()

	r.bpLine.SetValue(0)
	snap := r.sampler.SampleOnce()
	assert.Equal(t, 80, snap.BPSystolic)
	assert.Equal(t, 40, snap.BPDiastolic)

	r.bpLine.SetValue(4095)
	snap = r.sampler.SampleOnce()
	assert.Equal(t, 180, snap.BPSystolic)
	assert.Equal(t, 140, snap.BPDiastolic)
}

func TestLeadsOffZeroesECG(t *testing.T) {
	r := newRig(t)
	r.sampler.Init()

	r.loMinus.SetLevel(true)

	snap := r.sampler.SampleOnce()
	assert.Zero(t, snap.ECGValue)
	assert.False(t, snap.ECGLeadsConnected)
}

func TestTimestampsStrictlyIncrease(t *testing.T) {
	r := newRig(t)
	r.sampler.Init()

	// A stalled clock must still yield strictly increasing timestamps.
	var prev int64 = -1
	for i := 0; i < 5; i++ {
		snap := r.sampler.SampleOnce()
		require.Greater(t, snap.Timestamp, prev)
		prev = snap.Timestamp
	}

	// A normal clock advance resynchronizes.
	r.clock.ms = 10_000
	snap := r.sampler.SampleOnce()
	assert.Equal(t, int64(10_000), snap.Timestamp)
}
