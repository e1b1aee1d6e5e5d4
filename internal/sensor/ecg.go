package sensor

import (
	"fmt"

	"github.com/healthcarekit/vitalmon/internal/sensor/hal"
)

// AD8232 reads the single-lead ECG front end. The chip raises its LO+ and
// LO- pins when the corresponding electrode loses skin contact; while either
// pin is high the analog output floats and must not be reported as a signal.
type AD8232 struct {
	Signal  hal.AnalogReader
	LOPlus  hal.DigitalReader
	LOMinus hal.DigitalReader
}

// Read returns the raw ECG sample and whether both leads are attached. The
// lead-off pins are checked first; when either indicates leads-off, the
// analog channel is not sampled at all and the value is 0.
func (e *AD8232) Read() (value int, connected bool, err error) {
	loPlus, err := e.LOPlus.Read()
	if err != nil {
		return 0, false, fmt.Errorf("reading LO+ pin: %w", err)
	}
	loMinus, err := e.LOMinus.Read()
	if err != nil {
		return 0, false, fmt.Errorf("reading LO- pin: %w", err)
	}
	if loPlus || loMinus {
		return 0, false, nil
	}

	value, err = e.Signal.Read()
	if err != nil {
		return 0, false, fmt.Errorf("reading ECG channel: %w", err)
	}
	return value, true, nil
}
