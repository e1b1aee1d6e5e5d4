package app

import (
	"errors"
	"image/color"
	"time"

	"github.com/healthcarekit/vitalmon/internal/collector"
)

// ErrEmptySession means the session holds no readings to chart.
var ErrEmptySession = errors.New("session has no readings")

// Sample is one charted value. OK is false where the monitor reported no
// confident reading; the renderer leaves a gap there instead of a point.
type Sample struct {
	At    time.Time
	Value float64
	OK    bool
}

// Series is a single line within a panel.
type Series struct {
	Label   string
	Color   color.RGBA
	Samples []Sample
}

// Panel is one charted vital. NormalMin and NormalMax bound the clinically
// normal band shaded behind the line.
type Panel struct {
	Title     string
	Unit      string
	NormalMin float64
	NormalMax float64
	Series    []Series
}

// TrendData holds everything the renderer needs for one session chart.
type TrendData struct {
	SessionID string
	DeviceID  string
	Start     time.Time
	End       time.Time
	Count     int
	Panels    []Panel
}

var (
	heartRateColor   = color.RGBA{R: 0xd6, G: 0x2f, B: 0x2f, A: 0xff}
	spo2Color        = color.RGBA{R: 0x1e, G: 0x63, B: 0xc4, A: 0xff}
	temperatureColor = color.RGBA{R: 0xe6, G: 0x8a, B: 0x00, A: 0xff}
	systolicColor    = color.RGBA{R: 0x6a, G: 0x1b, B: 0x9a, A: 0xff}
	diastolicColor   = color.RGBA{R: 0xab, G: 0x7b, B: 0xd1, A: 0xff}
	respirationColor = color.RGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff}
)

// NewTrendData builds the chart series from a session's readings. Readings
// must be ordered oldest first.
func NewTrendData(sessionID string, readings []*collector.Reading) (*TrendData, error) {
	if len(readings) == 0 {
		return nil, ErrEmptySession
	}

	td := TrendData{
		SessionID: sessionID,
		Start:     readings[0].ReceivedAt,
		End:       readings[len(readings)-1].ReceivedAt,
		Count:     len(readings),
	}

	hr := make([]Sample, len(readings))
	spo2 := make([]Sample, len(readings))
	temp := make([]Sample, len(readings))
	sys := make([]Sample, len(readings))
	dia := make([]Sample, len(readings))
	rr := make([]Sample, len(readings))

	for i, r := range readings {
		rec := r.Record
		if td.DeviceID == "" {
			td.DeviceID = rec.DeviceID
		}

		hr[i] = sample(r.ReceivedAt, float64(rec.HeartRate))
		spo2[i] = sample(r.ReceivedAt, float64(rec.OxygenSaturation))
		temp[i] = sample(r.ReceivedAt, rec.Temperature)
		sys[i] = sample(r.ReceivedAt, float64(rec.BPSystolic))
		dia[i] = sample(r.ReceivedAt, float64(rec.BPDiastolic))
		rr[i] = sample(r.ReceivedAt, float64(rec.RespiratoryRate))
	}

	td.Panels = []Panel{
		{
			Title: "Heart Rate", Unit: "bpm",
			NormalMin: 60, NormalMax: 100,
			Series: []Series{{Label: "HR", Color: heartRateColor, Samples: hr}},
		},
		{
			Title: "Oxygen Saturation", Unit: "%",
			NormalMin: 95, NormalMax: 100,
			Series: []Series{{Label: "SpO2", Color: spo2Color, Samples: spo2}},
		},
		{
			Title: "Temperature", Unit: "C",
			NormalMin: 36.1, NormalMax: 37.2,
			Series: []Series{{Label: "Temp", Color: temperatureColor, Samples: temp}},
		},
		{
			Title: "Blood Pressure", Unit: "mmHg",
			NormalMin: 80, NormalMax: 120,
			Series: []Series{
				{Label: "Systolic", Color: systolicColor, Samples: sys},
				{Label: "Diastolic", Color: diastolicColor, Samples: dia},
			},
		},
		{
			Title: "Respiratory Rate", Unit: "brpm",
			NormalMin: 12, NormalMax: 20,
			Series: []Series{{Label: "RR", Color: respirationColor, Samples: rr}},
		},
	}

	return &td, nil
}

// sample treats zero as "no confident reading".
func sample(at time.Time, v float64) Sample {
	return Sample{At: at, Value: v, OK: v != 0}
}

// Bounds returns the value range a panel must display: the union of the
// normal band and the data, with a small margin.
func (p *Panel) Bounds() (min, max float64) {
	min, max = p.NormalMin, p.NormalMax

	for _, s := range p.Series {
		for _, pt := range s.Samples {
			if !pt.OK {
				continue
			}
			if pt.Value < min {
				min = pt.Value
			}
			if pt.Value > max {
				max = pt.Value
			}
		}
	}

	margin := (max - min) * 0.1
	if margin == 0 {
		margin = 1
	}
	return min - margin, max + margin
}
