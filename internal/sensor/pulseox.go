package sensor

import (
	"fmt"

	"github.com/healthcarekit/vitalmon/internal/sensor/hal"
)

// MAX30100 reads the computed heart-rate and SpO2 registers of the pulse
// oximetry front end, each exposed as a raw input line. The chip does the
// optical processing; the driver only moves the numbers.
type MAX30100 struct {
	HR   hal.AnalogReader
	SpO2 hal.AnalogReader
}

func (p *MAX30100) Probe() bool {
	if _, err := p.HR.Read(); err != nil {
		return false
	}
	_, err := p.SpO2.Read()
	return err == nil
}

func (p *MAX30100) Read() (int, int, error) {
	hr, err := p.HR.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("reading heart rate: %w", err)
	}
	spo2, err := p.SpO2.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("reading SpO2: %w", err)
	}
	return hr, spo2, nil
}
