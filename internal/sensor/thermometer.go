package sensor

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DS18B20 reads a 1-Wire digital thermometer through its sysfs slave file
// (typically /sys/bus/w1/devices/28-*/w1_slave). The kernel driver reports
// millidegrees after a CRC line:
//
//	a3 01 4b 46 7f ff 0c 10 d8 : crc=d8 YES
//	a3 01 4b 46 7f ff 0c 10 d8 t=26187
type DS18B20 struct {
	Path string
}

func (t *DS18B20) Probe() bool {
	_, err := t.ReadCelsius()
	return err == nil
}

func (t *DS18B20) ReadCelsius() (float64, error) {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return 0, fmt.Errorf("reading w1 slave %s: %w", t.Path, err)
	}
	return parseW1Slave(string(data))
}

func parseW1Slave(dump string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(dump), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("malformed w1 slave dump: %d lines", len(lines))
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, fmt.Errorf("w1 slave CRC check failed")
	}

	_, raw, found := strings.Cut(lines[1], "t=")
	if !found {
		return 0, fmt.Errorf("w1 slave dump has no temperature field")
	}
	milli, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing temperature %q: %w", raw, err)
	}
	return float64(milli) / 1000, nil
}

// SimThermometer is a scripted thermometer for development runs and tests.
type SimThermometer struct {
	Present bool
	Celsius float64
	Err     error
}

func (t *SimThermometer) Probe() bool { return t.Present }

func (t *SimThermometer) ReadCelsius() (float64, error) {
	return t.Celsius, t.Err
}
