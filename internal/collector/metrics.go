package collector

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes collector counters on the Prometheus registry.
type Metrics struct {
	ReadingsReceived prometheus.Counter
	ReadingsRejected prometheus.Counter
	LastHeartRate    prometheus.Gauge
	LastSpO2         prometheus.Gauge
}

// NewMetrics creates and registers the collector metrics. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReadingsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vitalmon_readings_received_total",
			Help: "Telemetry records accepted and stored.",
		}),
		ReadingsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vitalmon_readings_rejected_total",
			Help: "Telemetry records rejected as malformed.",
		}),
		LastHeartRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vitalmon_last_heart_rate_bpm",
			Help: "Heart rate of the most recent reading; 0 means no confident reading.",
		}),
		LastSpO2: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vitalmon_last_spo2_percent",
			Help: "Oxygen saturation of the most recent reading; 0 means no confident reading.",
		}),
	}

	reg.MustRegister(m.ReadingsReceived, m.ReadingsRejected, m.LastHeartRate, m.LastSpO2)
	return m
}
