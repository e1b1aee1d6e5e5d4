package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/healthcarekit/vitalmon/internal/vitals"
)

const (
	TransportSerial = "serial"
	TransportHTTP   = "http"
	TransportMQTT   = "mqtt"

	HALSim   = "sim"
	HALSysfs = "sysfs"

	StatusLog  = "log"
	StatusGPIO = "gpio"

	defaultReadInterval  = Duration(time.Second)
	defaultSendInterval  = Duration(2 * time.Second)
	defaultLinkInterval  = Duration(5 * time.Second)
	defaultSerialBaud    = 115200
	defaultJoinRetries   = 5
	defaultRetryDelay    = Duration(2 * time.Second)
	defaultMQTTTopicName = "vitalmon/vitals"
)

// Duration is a YAML-friendly time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the monitor configuration. Everything here is read once at
// start-up and immutable afterwards.
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Device    DeviceConfig    `yaml:"device"`
	Intervals IntervalsConfig `yaml:"intervals"`
	Transport TransportConfig `yaml:"transport"`
	Wireless  WirelessConfig  `yaml:"wireless"`
	Sensors   SensorsConfig   `yaml:"sensors"`
	Status    StatusConfig    `yaml:"status"`
	Bounds    vitals.Bounds   `yaml:"bounds"`
}

// Settings represents global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// ParseLogLevel maps the configured level name onto slog.
func (s Settings) ParseLogLevel() (slog.Level, error) {
	var level slog.Level
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level '%s': %w", s.LogLevel, err)
	}
	return level, nil
}

// DeviceConfig identifies this monitor to the collector. An empty ID falls
// back to the machine identifier.
type DeviceConfig struct {
	ID string `yaml:"id"`
}

// IntervalsConfig holds the three independent cadences of the control loop.
type IntervalsConfig struct {
	Read      Duration `yaml:"read"`
	Send      Duration `yaml:"send"`
	LinkCheck Duration `yaml:"linkCheck"`
}

// TransportConfig selects and configures the telemetry transport.
type TransportConfig struct {
	Kind   string       `yaml:"kind"`
	HTTP   HTTPConfig   `yaml:"http"`
	Serial SerialConfig `yaml:"serial"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
}

type HTTPConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Timeout  Duration `yaml:"timeout"` // zero keeps the transport default
}

type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"clientId"`
}

// WirelessConfig configures the link manager. An empty SSID disables link
// management entirely: the network is assumed managed elsewhere (wired, or
// pre-provisioned) and the publisher runs ungated.
type WirelessConfig struct {
	Interface   string   `yaml:"interface"`
	SSID        string   `yaml:"ssid"`
	Password    string   `yaml:"password"`
	JoinRetries int      `yaml:"joinRetries"`
	RetryDelay  Duration `yaml:"retryDelay"`
}

func (w WirelessConfig) Enabled() bool {
	return w.SSID != ""
}

// SensorsConfig wires the drivers to board lines. HAL selects the backing:
// sysfs attribute files on real hardware, a simulated board for development.
type SensorsConfig struct {
	HAL           string           `yaml:"hal"`
	Temperature   TemperatureLines `yaml:"temperature"`
	PulseOx       PulseOxLines     `yaml:"pulseOx"`
	BloodPressure ProxyLines       `yaml:"bloodPressure"`
	Respiration   ProxyLines       `yaml:"respiration"`
	ECG           ECGLines         `yaml:"ecg"`
}

type TemperatureLines struct {
	Path string `yaml:"path"`
}

type PulseOxLines struct {
	HRPath   string `yaml:"hrPath"`
	SpO2Path string `yaml:"spo2Path"`
}

type ProxyLines struct {
	Path        string             `yaml:"path"`
	Calibration vitals.Calibration `yaml:"calibration"`
}

type ECGLines struct {
	SignalPath  string `yaml:"signalPath"`
	LOPlusPath  string `yaml:"loPlusPath"`
	LOMinusPath string `yaml:"loMinusPath"`
}

// StatusConfig selects the status line backing.
type StatusConfig struct {
	Output string `yaml:"output"`
	Path   string `yaml:"path"`
}

// LoadConfig reads, defaults and validates the configuration file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	var config Config
	if err := yaml.NewDecoder(f).Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Intervals.Read == 0 {
		c.Intervals.Read = defaultReadInterval
	}
	if c.Intervals.Send == 0 {
		c.Intervals.Send = defaultSendInterval
	}
	if c.Intervals.LinkCheck == 0 {
		c.Intervals.LinkCheck = defaultLinkInterval
	}

	// The serial variant unifies read and send: one record per line, one
	// line per read interval.
	if c.Transport.Kind == TransportSerial {
		c.Intervals.Send = c.Intervals.Read
	}

	if c.Transport.Serial.Baud == 0 {
		c.Transport.Serial.Baud = defaultSerialBaud
	}
	if c.Transport.MQTT.Topic == "" {
		c.Transport.MQTT.Topic = defaultMQTTTopicName
	}

	if c.Wireless.JoinRetries == 0 {
		c.Wireless.JoinRetries = defaultJoinRetries
	}
	if c.Wireless.RetryDelay == 0 {
		c.Wireless.RetryDelay = defaultRetryDelay
	}

	if c.Sensors.HAL == "" {
		c.Sensors.HAL = HALSim
	}
	if c.Status.Output == "" {
		c.Status.Output = StatusLog
	}

	if c.Bounds == (vitals.Bounds{}) {
		c.Bounds = vitals.DefaultBounds()
	}
	if c.Sensors.BloodPressure.Calibration == (vitals.Calibration{}) {
		c.Sensors.BloodPressure.Calibration = vitals.DefaultBPCalibration()
	}
	if c.Sensors.Respiration.Calibration == (vitals.Calibration{}) {
		c.Sensors.Respiration.Calibration = vitals.DefaultRespirationCalibration()
	}
}

func (c *Config) Validate() error {
	if _, err := c.Settings.ParseLogLevel(); err != nil {
		return err
	}

	switch c.Transport.Kind {
	case TransportSerial:
		if c.Transport.Serial.Port == "" {
			return fmt.Errorf("serial transport requires a port")
		}
		if c.Transport.Serial.Baud <= 0 {
			return fmt.Errorf("invalid serial baud rate: %d", c.Transport.Serial.Baud)
		}

	case TransportHTTP:
		if c.Transport.HTTP.Endpoint == "" {
			return fmt.Errorf("http transport requires an endpoint")
		}

	case TransportMQTT:
		if c.Transport.MQTT.Broker == "" {
			return fmt.Errorf("mqtt transport requires a broker URL")
		}

	default:
		return fmt.Errorf("unknown transport kind '%s'", c.Transport.Kind)
	}

	if c.Intervals.Send < c.Intervals.Read {
		return fmt.Errorf("send interval must not be shorter than read interval: %s < %s",
			c.Intervals.Send.Std(), c.Intervals.Read.Std())
	}

	switch c.Sensors.HAL {
	case HALSim, HALSysfs:
	default:
		return fmt.Errorf("unknown sensor HAL '%s'", c.Sensors.HAL)
	}

	if c.Sensors.HAL == HALSysfs {
		if c.Sensors.BloodPressure.Path == "" || c.Sensors.Respiration.Path == "" {
			return fmt.Errorf("sysfs HAL requires blood pressure and respiration channel paths")
		}
		if c.Sensors.ECG.SignalPath == "" || c.Sensors.ECG.LOPlusPath == "" || c.Sensors.ECG.LOMinusPath == "" {
			return fmt.Errorf("sysfs HAL requires the ECG signal and both lead-off paths")
		}
	}

	switch c.Status.Output {
	case StatusLog:
	case StatusGPIO:
		if c.Status.Path == "" {
			return fmt.Errorf("gpio status output requires a path")
		}
	default:
		return fmt.Errorf("unknown status output '%s'", c.Status.Output)
	}

	if err := c.Bounds.Validate(); err != nil {
		return err
	}
	if err := c.Sensors.BloodPressure.Calibration.Validate(); err != nil {
		return fmt.Errorf("blood pressure calibration: %w", err)
	}
	if err := c.Sensors.Respiration.Calibration.Validate(); err != nil {
		return fmt.Errorf("respiration calibration: %w", err)
	}

	return nil
}
