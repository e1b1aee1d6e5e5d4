package vitals

import (
	"fmt"
	"math"
)

// Calibration is a two-point linear remap from a raw ADC domain to a
// physiological output range. It stands in for a true per-sensor calibration
// curve: deployments swap the points, not the sampler logic.
type Calibration struct {
	DomainMin float64 `yaml:"domainMin" json:"domainMin"`
	DomainMax float64 `yaml:"domainMax" json:"domainMax"`
	RangeMin  float64 `yaml:"rangeMin" json:"rangeMin"`
	RangeMax  float64 `yaml:"rangeMax" json:"rangeMax"`
}

// Remap projects raw onto the output range. Raw values outside the domain are
// pinned to the domain edge first, so the output always lands inside
// [RangeMin, RangeMax]; the result is rounded to the nearest integer.
func (c Calibration) Remap(raw float64) int {
	if raw < c.DomainMin {
		raw = c.DomainMin
	}
	if raw > c.DomainMax {
		raw = c.DomainMax
	}

	ratio := (raw - c.DomainMin) / (c.DomainMax - c.DomainMin)
	return int(math.Round(c.RangeMin + ratio*(c.RangeMax-c.RangeMin)))
}

func (c Calibration) Validate() error {
	if c.DomainMax <= c.DomainMin {
		return fmt.Errorf("vitals.Calibration: domain max must be greater than min: %g <= %g", c.DomainMax, c.DomainMin)
	}
	if c.RangeMax <= c.RangeMin {
		return fmt.Errorf("vitals.Calibration: range max must be greater than min: %g <= %g", c.RangeMax, c.RangeMin)
	}
	return nil
}

// DefaultBPCalibration maps a 12-bit ADC domain onto systolic mmHg.
func DefaultBPCalibration() Calibration {
	return Calibration{DomainMin: 0, DomainMax: 4095, RangeMin: 80, RangeMax: 180}
}

// DefaultRespirationCalibration maps a 12-bit ADC domain onto breaths/min.
func DefaultRespirationCalibration() Calibration {
	return Calibration{DomainMin: 0, DomainMax: 4095, RangeMin: 8, RangeMax: 25}
}
