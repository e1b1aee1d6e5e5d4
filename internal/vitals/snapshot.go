package vitals

// Snapshot is one complete, timestamped set of vital-sign readings produced
// per sampling tick. A snapshot fully replaces its predecessor; it is never
// accumulated, queued or retried.
//
// A zero in a gated field means "no confident reading". Values are filtered,
// never clamped: a reading outside its plausible range must not be reported
// as a misleading boundary value.
type Snapshot struct {
	HeartRate         int     // beats/min, 0 or within the configured plausible range
	OxygenSaturation  int     // percent, 0 or within the configured plausible range
	Temperature       float64 // degrees Celsius, one decimal; 0.0 when the sensor is absent
	BPSystolic        int     // mmHg, remapped from the blood-pressure proxy channel
	BPDiastolic       int     // mmHg, always BPSystolic - 40
	RespiratoryRate   int     // breaths/min, remapped from the respiration proxy channel
	ECGValue          int     // raw ADC units, forced to 0 while any lead is off
	ECGLeadsConnected bool    // true iff both lead-off detector pins report contact
	Timestamp         int64   // milliseconds since boot, strictly increasing
}

// Capabilities records which capability-gated sensors responded to the
// start-up probe. It is written once during initialization and read-only
// afterwards; an absent sensor stays absent for the whole session.
type Capabilities struct {
	Temperature bool
	PulseOx     bool
}
