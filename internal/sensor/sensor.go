// Package sensor holds the physiological sensor drivers. Every driver
// follows the same contract: a best-effort Probe that reports presence and
// never fails fatally, and single-sample reads with no internal retry.
// Capability-gated sensors (temperature, pulse oximetry) are probed exactly
// once at start-up; an absent device is not probed again for the session,
// since repeated bus access against missing hardware can hang shared-bus
// peripherals.
package sensor

// Thermometer reads body temperature in degrees Celsius.
type Thermometer interface {
	// Probe reports whether the sensor responded. Best effort, never fatal.
	Probe() bool

	// ReadCelsius takes one temperature sample.
	ReadCelsius() (float64, error)
}

// PulseOximeter reads heart rate and blood oxygen saturation.
type PulseOximeter interface {
	// Probe reports whether the front end responded. Best effort, never fatal.
	Probe() bool

	// Read takes one sample of heart rate (beats/min) and SpO2 (percent).
	Read() (hr, spo2 int, err error)
}
