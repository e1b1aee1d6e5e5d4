package vitals

import "time"

// Clock provides monotonic device time for snapshot timestamps.
type Clock interface {
	// Millis returns milliseconds elapsed since the device came up.
	Millis() int64
}

type bootClock struct {
	start time.Time
}

// NewClock returns a Clock anchored at the moment of construction. It relies
// on Go's monotonic clock reading, so wall-clock adjustments cannot move
// timestamps backwards.
func NewClock() Clock {
	return &bootClock{start: time.Now()}
}

func (c *bootClock) Millis() int64 {
	return time.Since(c.start).Milliseconds()
}
