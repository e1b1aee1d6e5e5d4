package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalImmediatelyDue(t *testing.T) {
	i := NewInterval(time.Second)
	assert.True(t, i.Due(time.Now()))
}

func TestIntervalGatesCadence(t *testing.T) {
	base := time.Now()
	i := NewInterval(time.Second)

	require.True(t, i.Due(base))
	assert.False(t, i.Due(base.Add(500*time.Millisecond)))
	assert.False(t, i.Due(base.Add(999*time.Millisecond)))
	assert.True(t, i.Due(base.Add(time.Second)))
}

func TestIntervalAdvancesFromNow(t *testing.T) {
	base := time.Now()
	i := NewInterval(time.Second)

	require.True(t, i.Due(base))

	// A tick that lands late re-arms from the late time; there is no burst
	// of catch-up runs afterwards.
	late := base.Add(3 * time.Second)
	require.True(t, i.Due(late))
	assert.False(t, i.Due(late.Add(999*time.Millisecond)))
	assert.True(t, i.Due(late.Add(time.Second)))
}

func TestRunWithoutTasksReturns(t *testing.T) {
	assert.NoError(t, New().Run(context.Background()))
}

func TestRunStopsOnContext(t *testing.T) {
	l := New(WithResolution(time.Millisecond))

	var ticks int
	l.Add("count", time.Millisecond, func(context.Context) { ticks++ })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, ticks, 0)
}

func TestTasksRunInRegistrationOrder(t *testing.T) {
	l := New(WithResolution(time.Millisecond))

	var order []string
	l.Add("sample", time.Millisecond, func(context.Context) { order = append(order, "sample") })
	l.Add("publish", time.Millisecond, func(context.Context) { order = append(order, "publish") })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = l.Run(ctx)

	require.GreaterOrEqual(t, len(order), 2)
	for i := 0; i+1 < len(order); i += 2 {
		assert.Equal(t, "sample", order[i])
		assert.Equal(t, "publish", order[i+1])
	}
}

func TestIndependentCadences(t *testing.T) {
	l := New(WithResolution(time.Millisecond))

	var fast, slow int
	l.Add("fast", 2*time.Millisecond, func(context.Context) { fast++ })
	l.Add("slow", 20*time.Millisecond, func(context.Context) { slow++ })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = l.Run(ctx)

	require.Greater(t, slow, 0)
	assert.Greater(t, fast, slow, "the shorter interval must fire more often")
}
