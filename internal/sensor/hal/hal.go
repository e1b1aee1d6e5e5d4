// Package hal abstracts the board's input and output lines. Drivers consume
// these interfaces; concrete implementations read Linux sysfs attribute files
// (IIO ADC channels, GPIO values, 1-Wire slave dumps) or a simulated board
// used in development and tests.
package hal

// AnalogReader reads one raw sample from an analog input line. A read is a
// single best-effort bus access with no internal retry.
type AnalogReader interface {
	Read() (int, error)
}

// DigitalReader reads the level of a digital input line.
type DigitalReader interface {
	Read() (bool, error)
}

// Output drives a single binary output line.
type Output interface {
	Set(on bool) error
}
