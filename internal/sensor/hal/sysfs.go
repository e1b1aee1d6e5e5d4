package hal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SysfsAnalog reads a raw integer sample from a sysfs attribute file, such as
// an IIO channel's in_voltage_raw.
type SysfsAnalog struct {
	Path string
}

func (a *SysfsAnalog) Read() (int, error) {
	v, err := readIntFile(a.Path)
	if err != nil {
		return 0, fmt.Errorf("reading analog line %s: %w", a.Path, err)
	}
	return v, nil
}

// SysfsDigital reads a GPIO value file; anything non-zero is high.
type SysfsDigital struct {
	Path string
}

func (d *SysfsDigital) Read() (bool, error) {
	v, err := readIntFile(d.Path)
	if err != nil {
		return false, fmt.Errorf("reading digital line %s: %w", d.Path, err)
	}
	return v != 0, nil
}

// SysfsOutput writes "1"/"0" to a GPIO value file.
type SysfsOutput struct {
	Path string
}

func (o *SysfsOutput) Set(on bool) error {
	v := "0"
	if on {
		v = "1"
	}
	if err := os.WriteFile(o.Path, []byte(v), 0o644); err != nil {
		return fmt.Errorf("writing output line %s: %w", o.Path, err)
	}
	return nil
}

func readIntFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
