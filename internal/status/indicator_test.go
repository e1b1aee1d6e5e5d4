package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthcarekit/vitalmon/internal/sensor/hal"
)

func TestSteadyAndOff(t *testing.T) {
	out := &hal.SimOutput{}
	i := New(out)

	i.Steady()
	assert.True(t, out.Level())

	i.Off()
	assert.False(t, out.Level())
}

func TestBlinkTickToggles(t *testing.T) {
	out := &hal.SimOutput{}
	i := New(out)

	i.BlinkTick()
	i.BlinkTick()
	i.BlinkTick()

	assert.Equal(t, []bool{true, false, true}, out.Writes())
}

func TestFlashDipsForOneTick(t *testing.T) {
	out := &hal.SimOutput{}
	i := New(out)
	i.Steady()

	i.Flash()
	assert.False(t, out.Level(), "a flash dips the line")

	i.Restore()
	assert.True(t, out.Level(), "restore brings the line back")
}

func TestRestoreWithoutFlashIsNoop(t *testing.T) {
	out := &hal.SimOutput{}
	i := New(out)
	i.Steady()

	writes := len(out.Writes())
	i.Restore()
	assert.Len(t, out.Writes(), writes, "no pending flash, no write")
}
