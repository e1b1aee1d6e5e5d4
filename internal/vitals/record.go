package vitals

import "math"

// Sensor names used as keys of the Record.Sensors capability map. The names
// follow the front-end parts so the collector can tell which channel went
// dark without knowing the board layout.
const (
	SensorTemperature = "ds18b20"
	SensorPulseOx     = "max30100"
)

// Record is the canonical telemetry record: the serialized form of a
// Snapshot sent to the remote collector, one per publish. Field names are
// part of the wire contract and must not change.
type Record struct {
	HeartRate         int             `json:"hr"`
	BPSystolic        int             `json:"bp_sys"`
	BPDiastolic       int             `json:"bp_dia"`
	Temperature       float64         `json:"temp"`
	OxygenSaturation  int             `json:"spo2"`
	RespiratoryRate   int             `json:"rr"`
	ECGValue          int             `json:"ecg"`
	ECGLeadsConnected bool            `json:"ecg_leads"`
	Timestamp         int64           `json:"timestamp"`
	DeviceID          string          `json:"device_id,omitempty"`
	Sensors           map[string]bool `json:"sensors"`
}

// NewRecord builds the wire record for a snapshot. The temperature is rounded
// to one decimal here so every transport serializes the same value; no other
// field is transformed. DeviceID may be empty on the point-to-point serial
// link, where the peer is unambiguous.
func NewRecord(s Snapshot, caps Capabilities, deviceID string) *Record {
	return &Record{
		HeartRate:         s.HeartRate,
		BPSystolic:        s.BPSystolic,
		BPDiastolic:       s.BPDiastolic,
		Temperature:       math.Round(s.Temperature*10) / 10,
		OxygenSaturation:  s.OxygenSaturation,
		RespiratoryRate:   s.RespiratoryRate,
		ECGValue:          s.ECGValue,
		ECGLeadsConnected: s.ECGLeadsConnected,
		Timestamp:         s.Timestamp,
		DeviceID:          deviceID,
		Sensors: map[string]bool{
			SensorTemperature: caps.Temperature,
			SensorPulseOx:     caps.PulseOx,
		},
	}
}
