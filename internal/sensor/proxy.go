package sensor

import (
	"fmt"

	"github.com/healthcarekit/vitalmon/internal/sensor/hal"
	"github.com/healthcarekit/vitalmon/internal/vitals"
)

// AnalogProxy derives a vital sign from a raw analog channel through an
// injected two-point calibration. The blood-pressure and respiration
// channels are proxies, not true physiological measurements: the calibration
// curve is the deployment-specific part and the only part that changes
// between installations.
type AnalogProxy struct {
	Channel     hal.AnalogReader
	Calibration vitals.Calibration
}

// Read takes one raw sample and remaps it onto the calibrated output range.
func (p *AnalogProxy) Read() (int, error) {
	raw, err := p.Channel.Read()
	if err != nil {
		return 0, fmt.Errorf("reading proxy channel: %w", err)
	}
	return p.Calibration.Remap(float64(raw)), nil
}
