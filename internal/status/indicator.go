// Package status drives the single binary status line. The indicator is a
// pure side-effect consumer: it blinks during reconnect attempts, holds
// steady while connected or idle, and flashes briefly on each successful
// publish. Nothing reads it back.
package status

import (
	"io"
	"log/slog"

	"github.com/healthcarekit/vitalmon/internal/sensor/hal"
)

// Indicator owns one output line and its current level. It carries no other
// state and makes no decisions; the control loop and publisher tell it what
// happened and it translates that into levels.
type Indicator struct {
	out    hal.Output
	level  bool
	flash  bool
	logger *slog.Logger
}

// WithLogger sets the logger for the indicator.
func WithLogger(logger *slog.Logger) func(*Indicator) {
	return func(i *Indicator) {
		i.logger = logger.With(slog.String("component", "status"))
	}
}

// New creates an Indicator over the given output line, initially off.
func New(out hal.Output, options ...func(*Indicator)) *Indicator {
	i := Indicator{
		out:    out,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&i)
	}

	return &i
}

// Steady turns the line on and leaves it on: connected, or idle on a serial
// link.
func (i *Indicator) Steady() {
	i.set(true)
}

// Off turns the line off: the link is down and no reconnect is in flight.
func (i *Indicator) Off() {
	i.set(false)
}

// BlinkTick toggles the line. The link manager calls it once per
// association attempt, which reads as a blink at the retry cadence.
func (i *Indicator) BlinkTick() {
	i.set(!i.level)
}

// Flash marks a successful publish: the line dips for one control-loop tick
// and Restore brings it back.
func (i *Indicator) Flash() {
	i.flash = true
	i.set(false)
}

// Restore ends a pending flash. The control loop calls it at the top of each
// tick so a flash lasts exactly one tick.
func (i *Indicator) Restore() {
	if !i.flash {
		return
	}
	i.flash = false
	i.set(true)
}

func (i *Indicator) set(on bool) {
	if err := i.out.Set(on); err != nil {
		// A broken status line must never interfere with sampling.
		i.logger.Debug("status output write failed", slog.String("error", err.Error()))
		return
	}
	i.level = on
}

// LogOutput is an Output for boards without a spare line: level changes go
// to the debug log instead.
type LogOutput struct {
	Logger *slog.Logger
}

func (o *LogOutput) Set(on bool) error {
	o.Logger.Debug("status line", slog.Bool("on", on))
	return nil
}
