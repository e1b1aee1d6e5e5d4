// Package link owns the wireless connection lifecycle: association, health
// monitoring and autonomous reconnection. The serial transport variant does
// not use this package at all.
package link

import "context"

// State is the wireless link state. It is owned exclusively by the Manager
// and read by the telemetry publisher to gate send attempts.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Network abstracts the underlying wireless stack. The production
// implementation shells out to the system network manager; tests script one.
type Network interface {
	// Join attempts a single association with the configured network.
	Join(ctx context.Context) error

	// IsUp reports current link health. Polled, not event driven.
	IsUp(ctx context.Context) bool
}
