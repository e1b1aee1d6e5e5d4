package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcarekit/vitalmon/internal/collector"
	"github.com/healthcarekit/vitalmon/internal/vitals"
)

func reading(at time.Time, hr int) *collector.Reading {
	return &collector.Reading{
		ReceivedAt: at,
		Record: &vitals.Record{
			HeartRate:        hr,
			OxygenSaturation: 98,
			Temperature:      36.6,
			BPSystolic:       120,
			BPDiastolic:      80,
			RespiratoryRate:  16,
			DeviceID:         "monitor-01",
		},
	}
}

func TestNewTrendDataEmptySession(t *testing.T) {
	_, err := NewTrendData("s1", nil)
	assert.ErrorIs(t, err, ErrEmptySession)
}

func TestNewTrendData(t *testing.T) {
	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	readings := []*collector.Reading{
		reading(base, 72),
		reading(base.Add(2*time.Second), 0), // no confident reading
		reading(base.Add(4*time.Second), 75),
	}

	td, err := NewTrendData("s1", readings)
	require.NoError(t, err)

	assert.Equal(t, "s1", td.SessionID)
	assert.Equal(t, "monitor-01", td.DeviceID)
	assert.Equal(t, base, td.Start)
	assert.Equal(t, base.Add(4*time.Second), td.End)
	assert.Equal(t, 3, td.Count)
	require.Len(t, td.Panels, 5)

	hr := td.Panels[0]
	require.Len(t, hr.Series, 1)
	require.Len(t, hr.Series[0].Samples, 3)
	assert.True(t, hr.Series[0].Samples[0].OK)
	assert.False(t, hr.Series[0].Samples[1].OK, "zero readings become gaps")
	assert.True(t, hr.Series[0].Samples[2].OK)

	bp := td.Panels[3]
	assert.Len(t, bp.Series, 2, "blood pressure charts systolic and diastolic")
}

func TestPanelBoundsCoverNormalBandAndData(t *testing.T) {
	panel := Panel{
		NormalMin: 60,
		NormalMax: 100,
		Series: []Series{{
			Samples: []Sample{
				{Value: 180, OK: true},
				{Value: 40, OK: true},
				{Value: 500, OK: false}, // gaps are excluded
			},
		}},
	}

	min, max := panel.Bounds()
	assert.Less(t, min, 40.0)
	assert.Greater(t, max, 180.0)
	assert.Less(t, max, 500.0)
}
