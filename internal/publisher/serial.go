package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.bug.st/serial"

	"github.com/healthcarekit/vitalmon/internal/vitals"
)

// SerialTransport writes newline-delimited JSON records to a point-to-point
// byte stream, one record per interval, synchronously. The link is a wire:
// there is no lifecycle to manage and no gate to consult.
type SerialTransport struct {
	w io.WriteCloser
}

// OpenSerial opens the serial port at the given baud rate and wraps it in a
// transport.
func OpenSerial(port string, baud int) (*SerialTransport, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", port, err)
	}
	return NewSerialTransport(p), nil
}

// NewSerialTransport wraps an already-open stream. Tests pass a buffer.
func NewSerialTransport(w io.WriteCloser) *SerialTransport {
	return &SerialTransport{w: w}
}

func (t *SerialTransport) Send(_ context.Context, rec *vitals.Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	line = append(line, '\n')

	if _, err := t.w.Write(line); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

func (t *SerialTransport) Close() error {
	return t.w.Close()
}
