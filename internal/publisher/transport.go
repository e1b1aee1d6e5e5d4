// Package publisher serializes the latest vital snapshot into the canonical
// telemetry record and hands it to the active transport on its own interval.
package publisher

import (
	"context"

	"github.com/healthcarekit/vitalmon/internal/vitals"
)

// Transport carries one telemetry record to the collector. Send is
// synchronous; the pipeline never has more than one transmission in flight.
type Transport interface {
	Send(ctx context.Context, rec *vitals.Record) error
	Close() error
}

// Gate reports whether the underlying link can carry a transmission. The
// network variant plugs the link manager in here; the serial variant uses no
// gate and is always ready.
type Gate interface {
	Ready() bool
}
