// Package sampler drives the sensor drivers on a fixed cadence and fuses
// their readings into immutable vital snapshots.
package sampler

import (
	"io"
	"log/slog"

	"github.com/healthcarekit/vitalmon/internal/sensor"
	"github.com/healthcarekit/vitalmon/internal/vitals"
)

// WithLogger sets the logger for the sampler.
func WithLogger(logger *slog.Logger) func(*Sampler) {
	return func(s *Sampler) {
		s.logger = logger.With(slog.String("component", "sampler"))
	}
}

// WithBounds overrides the default plausibility windows.
func WithBounds(b vitals.Bounds) func(*Sampler) {
	return func(s *Sampler) {
		s.bounds = b
	}
}

// Sampler owns the sensor drivers, the capability flags discovered at
// start-up and the plausibility filters. It is driven by a single control
// loop and holds no locks; all of its state has exactly one writer.
type Sampler struct {
	thermometer sensor.Thermometer
	pulseOx     sensor.PulseOximeter
	bloodPress  *sensor.AnalogProxy
	respiration *sensor.AnalogProxy
	ecg         *sensor.AD8232

	caps   vitals.Capabilities
	bounds vitals.Bounds
	clock  vitals.Clock
	lastTS int64

	logger *slog.Logger
}

// New creates a Sampler over the given drivers. Call Init once before the
// first SampleOnce to probe the capability-gated sensors.
func New(
	thermometer sensor.Thermometer,
	pulseOx sensor.PulseOximeter,
	bloodPress, respiration *sensor.AnalogProxy,
	ecg *sensor.AD8232,
	clock vitals.Clock,
	options ...func(*Sampler),
) *Sampler {
	s := Sampler{
		thermometer: thermometer,
		pulseOx:     pulseOx,
		bloodPress:  bloodPress,
		respiration: respiration,
		ecg:         ecg,
		clock:       clock,
		bounds:      vitals.DefaultBounds(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		lastTS:      -1,
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// Init probes the capability-gated sensors exactly once. Absence is a
// permanent condition for the session: the corresponding snapshot fields stay
// zeroed and the driver is never touched again, so a missing device cannot
// wedge the shared bus with repeated probes. Absence is logged once, here.
func (s *Sampler) Init() {
	s.caps.Temperature = s.thermometer.Probe()
	if !s.caps.Temperature {
		s.logger.Warn("temperature sensor absent, channel zeroed for this session")
	}

	s.caps.PulseOx = s.pulseOx.Probe()
	if !s.caps.PulseOx {
		s.logger.Warn("pulse oximeter absent, channels zeroed for this session")
	}
}

// Capabilities returns the flags discovered by Init. Read-only afterwards.
func (s *Sampler) Capabilities() vitals.Capabilities {
	return s.caps
}

// SampleOnce takes one reading from every channel and assembles a snapshot.
// It never blocks beyond a single driver read per channel and never aborts:
// a failed or implausible reading degrades that field to its zero sentinel
// for this snapshot only. Per-sample degradation is deliberately not logged;
// it is high frequency and non-actionable.
func (s *Sampler) SampleOnce() vitals.Snapshot {
	var snap vitals.Snapshot

	if s.caps.Temperature {
		if c, err := s.thermometer.ReadCelsius(); err == nil {
			snap.Temperature = c
		}
	}

	if s.caps.PulseOx {
		if hr, spo2, err := s.pulseOx.Read(); err == nil {
			snap.HeartRate = s.bounds.HeartRate.Filter(hr)
			snap.OxygenSaturation = s.bounds.OxygenSaturation.Filter(spo2)
		}
	}

	if sys, err := s.bloodPress.Read(); err == nil {
		snap.BPSystolic = sys
		snap.BPDiastolic = sys - 40
	}

	if rr, err := s.respiration.Read(); err == nil {
		snap.RespiratoryRate = rr
	}

	if value, connected, err := s.ecg.Read(); err == nil {
		snap.ECGValue = value
		snap.ECGLeadsConnected = connected
	}

	snap.Timestamp = s.nextTimestamp()
	return snap
}

// nextTimestamp guarantees strict monotonicity even when two ticks land
// within the same millisecond.
func (s *Sampler) nextTimestamp() int64 {
	ts := s.clock.Millis()
	if ts <= s.lastTS {
		ts = s.lastTS + 1
	}
	s.lastTS = ts
	return ts
}
