package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/denisbrodbeck/machineid"

	"github.com/healthcarekit/vitalmon/internal/link"
	"github.com/healthcarekit/vitalmon/internal/loop"
	"github.com/healthcarekit/vitalmon/internal/publisher"
	"github.com/healthcarekit/vitalmon/internal/sampler"
	"github.com/healthcarekit/vitalmon/internal/sensor"
	"github.com/healthcarekit/vitalmon/internal/sensor/hal"
	"github.com/healthcarekit/vitalmon/internal/status"
	"github.com/healthcarekit/vitalmon/internal/vitals"
)

// Run wires the pipeline and drives it until the context is cancelled. All
// mutable state (the latest snapshot, the link state, the capability flags)
// lives on objects owned here and is touched only by the control loop
// goroutine.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	deviceID, err := resolveDeviceID(config, logger)
	if err != nil {
		return err
	}

	smplr, err := createSampler(config, logger)
	if err != nil {
		return fmt.Errorf("creating sampler: %w", err)
	}
	smplr.Init()

	indicator, err := createIndicator(config, logger)
	if err != nil {
		return fmt.Errorf("creating status indicator: %w", err)
	}

	var manager *link.Manager
	if config.Transport.Kind != TransportSerial && config.Wireless.Enabled() {
		manager = createLinkManager(config, indicator, logger)
	}

	transport, err := createTransport(config, deviceID)
	if err != nil {
		return fmt.Errorf("creating transport: %w", err)
	}

	pubOptions := []func(*publisher.Publisher){
		publisher.WithLogger(logger),
		publisher.WithActivityFlash(indicator.Flash),
	}
	if manager != nil {
		pubOptions = append(pubOptions, publisher.WithGate(manager))
	}
	pub := publisher.New(transport, deviceID, smplr.Capabilities(), pubOptions...)
	defer pub.Close()

	logger.Info("monitor starting",
		slog.String("deviceID", deviceID),
		slog.String("transport", config.Transport.Kind),
		slog.Bool("linkManaged", manager != nil))

	// Latest-value-wins: the loop goroutine is the only reader and writer.
	var latest vitals.Snapshot
	var sampled bool

	l := loop.New(loop.WithLogger(logger))

	l.Add("status", config.Intervals.Read.Std(), func(context.Context) {
		indicator.Restore()
	})

	if manager != nil {
		l.Add("link-health", config.Intervals.LinkCheck.Std(), func(ctx context.Context) {
			manager.Tick(ctx)
			switch manager.State() {
			case link.Connected:
				indicator.Steady()
			case link.Disconnected:
				indicator.Off()
			}
		})
	} else {
		// Nothing to manage: the line reads steady-on from the start.
		indicator.Steady()
	}

	l.Add("sample", config.Intervals.Read.Std(), func(context.Context) {
		latest = smplr.SampleOnce()
		sampled = true
	})

	l.Add("publish", config.Intervals.Send.Std(), func(ctx context.Context) {
		if !sampled {
			return
		}
		pub.Publish(ctx, latest)
	})

	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func resolveDeviceID(config *Config, logger *slog.Logger) (string, error) {
	if config.Device.ID != "" {
		return config.Device.ID, nil
	}

	if id, err := machineid.ProtectedID("vitalmon"); err == nil {
		return id[:12], nil
	}

	// Containers and some boards expose no machine ID; the hostname still
	// distinguishes devices on the same collector.
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("no device ID configured and none derivable: %w", err)
	}
	logger.Warn("machine ID unavailable, using hostname as device ID", slog.String("deviceID", host))
	return host, nil
}

func createSampler(config *Config, logger *slog.Logger) (*sampler.Sampler, error) {
	var (
		thermometer sensor.Thermometer
		pulseOx     sensor.PulseOximeter
		bpChannel   hal.AnalogReader
		respChannel hal.AnalogReader
		ecgSignal   hal.AnalogReader
		loPlus      hal.DigitalReader
		loMinus     hal.DigitalReader
	)

	switch config.Sensors.HAL {
	case HALSysfs:
		thermometer = &sensor.DS18B20{Path: config.Sensors.Temperature.Path}
		pulseOx = &sensor.MAX30100{
			HR:   &hal.SysfsAnalog{Path: config.Sensors.PulseOx.HRPath},
			SpO2: &hal.SysfsAnalog{Path: config.Sensors.PulseOx.SpO2Path},
		}
		bpChannel = &hal.SysfsAnalog{Path: config.Sensors.BloodPressure.Path}
		respChannel = &hal.SysfsAnalog{Path: config.Sensors.Respiration.Path}
		ecgSignal = &hal.SysfsAnalog{Path: config.Sensors.ECG.SignalPath}
		loPlus = &hal.SysfsDigital{Path: config.Sensors.ECG.LOPlusPath}
		loMinus = &hal.SysfsDigital{Path: config.Sensors.ECG.LOMinusPath}

	case HALSim:
		// Plausible resting vitals for development without hardware.
		thermometer = &sensor.SimThermometer{Present: true, Celsius: 36.6}
		pulseOx = &sensor.MAX30100{
			HR:   hal.NewSimAnalog(72),
			SpO2: hal.NewSimAnalog(98),
		}
		bpChannel = hal.NewSimAnalog(1638)  // ~120 mmHg with default calibration
		respChannel = hal.NewSimAnalog(1927) // ~16 breaths/min
		ecgSignal = hal.NewSimAnalog(512)
		loPlus = hal.NewSimDigital(false)
		loMinus = hal.NewSimDigital(false)

	default:
		return nil, fmt.Errorf("unknown sensor HAL '%s'", config.Sensors.HAL)
	}

	return sampler.New(
		thermometer,
		pulseOx,
		&sensor.AnalogProxy{Channel: bpChannel, Calibration: config.Sensors.BloodPressure.Calibration},
		&sensor.AnalogProxy{Channel: respChannel, Calibration: config.Sensors.Respiration.Calibration},
		&sensor.AD8232{Signal: ecgSignal, LOPlus: loPlus, LOMinus: loMinus},
		vitals.NewClock(),
		sampler.WithLogger(logger),
		sampler.WithBounds(config.Bounds),
	), nil
}

func createIndicator(config *Config, logger *slog.Logger) (*status.Indicator, error) {
	var out hal.Output
	switch config.Status.Output {
	case StatusGPIO:
		out = &hal.SysfsOutput{Path: config.Status.Path}
	case StatusLog:
		out = &status.LogOutput{Logger: logger}
	default:
		return nil, fmt.Errorf("unknown status output '%s'", config.Status.Output)
	}
	return status.New(out, status.WithLogger(logger)), nil
}

func createLinkManager(config *Config, indicator *status.Indicator, logger *slog.Logger) *link.Manager {
	net := &link.NMCli{
		Interface: config.Wireless.Interface,
		SSID:      config.Wireless.SSID,
		Password:  config.Wireless.Password,
	}

	return link.NewManager(net,
		link.WithLogger(logger),
		link.WithJoinRetries(config.Wireless.JoinRetries),
		link.WithRetryDelay(config.Wireless.RetryDelay.Std()),
		link.WithAttemptHook(func(int) { indicator.BlinkTick() }),
	)
}

func createTransport(config *Config, deviceID string) (publisher.Transport, error) {
	switch config.Transport.Kind {
	case TransportSerial:
		return publisher.OpenSerial(config.Transport.Serial.Port, config.Transport.Serial.Baud)

	case TransportHTTP:
		return publisher.NewHTTPTransport(config.Transport.HTTP.Endpoint, config.Transport.HTTP.Timeout.Std()), nil

	case TransportMQTT:
		clientID := config.Transport.MQTT.ClientID
		if clientID == "" {
			clientID = "vitalmon-" + deviceID
		}
		return publisher.NewMQTTTransport(config.Transport.MQTT.Broker, clientID, config.Transport.MQTT.Topic)

	default:
		return nil, fmt.Errorf("unknown transport kind '%s'", config.Transport.Kind)
	}
}
