package vitals

import "fmt"

// Range is an inclusive plausibility window for an integer vital sign.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Filter returns v unchanged when it falls inside the range, and 0 otherwise.
// Out-of-range readings are sensor noise or a disconnected probe; reporting
// 0 signals "no confident reading" to downstream consumers.
func (r Range) Filter(v int) int {
	if v < r.Min || v > r.Max {
		return 0
	}
	return v
}

func (r Range) Validate() error {
	if r.Min <= 0 {
		return fmt.Errorf("vitals.Range: min must be positive: %d", r.Min)
	}
	if r.Max <= r.Min {
		return fmt.Errorf("vitals.Range: max must be greater than min: %d <= %d", r.Max, r.Min)
	}
	return nil
}

// Bounds holds the plausibility windows applied by the sampler.
type Bounds struct {
	HeartRate        Range `yaml:"heartRate" json:"heartRate"`
	OxygenSaturation Range `yaml:"oxygenSaturation" json:"oxygenSaturation"`
}

// DefaultBounds returns the physiological plausibility windows used when the
// configuration does not override them.
func DefaultBounds() Bounds {
	return Bounds{
		HeartRate:        Range{Min: 30, Max: 200},
		OxygenSaturation: Range{Min: 70, Max: 100},
	}
}

func (b Bounds) Validate() error {
	if err := b.HeartRate.Validate(); err != nil {
		return fmt.Errorf("heart rate bounds: %w", err)
	}
	if err := b.OxygenSaturation.Validate(); err != nil {
		return fmt.Errorf("oxygen saturation bounds: %w", err)
	}
	return nil
}
