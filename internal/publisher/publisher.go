package publisher

import (
	"context"
	"io"
	"log/slog"

	"github.com/healthcarekit/vitalmon/internal/vitals"
)

// WithLogger sets the logger for the publisher.
func WithLogger(logger *slog.Logger) func(*Publisher) {
	return func(p *Publisher) {
		p.logger = logger.With(slog.String("component", "publisher"))
	}
}

// WithGate installs a link readiness gate. Without one the publisher treats
// the link as always ready (serial variant).
func WithGate(gate Gate) func(*Publisher) {
	return func(p *Publisher) {
		p.gate = gate
	}
}

// WithActivityFlash installs a callback fired after each successful send;
// the status indicator hangs off it.
func WithActivityFlash(flash func()) func(*Publisher) {
	return func(p *Publisher) {
		p.flash = flash
	}
}

// Publisher turns the latest snapshot into a wire record and hands it to the
// transport. It never queues: a snapshot that cannot be sent this interval
// is discarded, and a failed transmission is logged but never retried — the
// next interval carries a fresher snapshot regardless.
type Publisher struct {
	transport Transport
	gate      Gate
	flash     func()

	deviceID string
	caps     vitals.Capabilities

	logger *slog.Logger
}

// New creates a Publisher. caps are the capability flags discovered at
// start-up; they ride along in every record.
func New(transport Transport, deviceID string, caps vitals.Capabilities, options ...func(*Publisher)) *Publisher {
	p := Publisher{
		transport: transport,
		deviceID:  deviceID,
		caps:      caps,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&p)
	}

	return &p
}

// Publish sends one record for the given snapshot. When the link gate is not
// ready the attempt is skipped outright for this interval — no buffering of
// missed snapshots. Failures are observational only and never propagate to
// the sampler or the link manager.
func (p *Publisher) Publish(ctx context.Context, snap vitals.Snapshot) {
	if p.gate != nil && !p.gate.Ready() {
		p.logger.Debug("link not ready, skipping publish")
		return
	}

	rec := vitals.NewRecord(snap, p.caps, p.deviceID)
	if err := p.transport.Send(ctx, rec); err != nil {
		p.logger.Warn("transmission failed, snapshot discarded",
			slog.String("error", err.Error()))
		return
	}

	if p.flash != nil {
		p.flash()
	}
}

// Close releases the transport.
func (p *Publisher) Close() error {
	return p.transport.Close()
}
