package link

import (
	"context"
	"io"
	"log/slog"
	"time"
)

const (
	defaultJoinRetries = 5
	defaultRetryDelay  = 2 * time.Second
)

// WithLogger sets the logger for the manager.
func WithLogger(logger *slog.Logger) func(*Manager) {
	return func(m *Manager) {
		m.logger = logger.With(slog.String("component", "link"))
	}
}

// WithJoinRetries bounds the association attempts of one Connecting cycle.
func WithJoinRetries(n int) func(*Manager) {
	return func(m *Manager) {
		m.retries = n
	}
}

// WithRetryDelay sets the fixed delay between association attempts.
func WithRetryDelay(d time.Duration) func(*Manager) {
	return func(m *Manager) {
		m.delay = d
	}
}

// WithAttemptHook installs a callback invoked before each association
// attempt. The status indicator uses it to blink during reconnects.
func WithAttemptHook(hook func(attempt int)) func(*Manager) {
	return func(m *Manager) {
		m.onAttempt = hook
	}
}

// Manager walks the link through Disconnected -> Connecting -> Connected and
// back. It is driven by the control loop's link-health interval and is the
// single writer of the link state. Reconnection uses a fixed retry count and
// a fixed inter-attempt delay; there is no backoff growth between cycles,
// a simplicity trade-off acceptable while reconnect attempts stay cheap
// relative to the sampling interval.
type Manager struct {
	net       Network
	state     State
	retries   int
	delay     time.Duration
	onAttempt func(attempt int)
	logger    *slog.Logger
}

// NewManager creates a Manager starting in the Disconnected state.
func NewManager(net Network, options ...func(*Manager)) *Manager {
	m := Manager{
		net:     net,
		state:   Disconnected,
		retries: defaultJoinRetries,
		delay:   defaultRetryDelay,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&m)
	}

	return &m
}

// State returns the current link state.
func (m *Manager) State() State {
	return m.state
}

// Ready reports whether the link can carry a telemetry transmission.
func (m *Manager) Ready() bool {
	return m.state == Connected
}

// Tick advances the state machine once. While Connected it re-checks link
// health and, on a negative result, drops straight to Connecting and retries
// association inline — the system heals itself without operator
// intervention. The association loop is the only blocking section and is
// time-boxed by the retry count and delay.
func (m *Manager) Tick(ctx context.Context) {
	switch m.state {
	case Connected:
		if m.net.IsUp(ctx) {
			return
		}
		m.transition(Connecting)
		m.connect(ctx)

	case Disconnected:
		m.transition(Connecting)
		m.connect(ctx)
	}
}

// connect runs one bounded Connecting cycle: up to retries association
// attempts separated by the fixed delay, ending Connected on success or
// Disconnected on exhaustion.
func (m *Manager) connect(ctx context.Context) {
	for attempt := 1; attempt <= m.retries; attempt++ {
		if ctx.Err() != nil {
			m.transition(Disconnected)
			return
		}
		if m.onAttempt != nil {
			m.onAttempt(attempt)
		}

		if err := m.net.Join(ctx); err != nil {
			m.logger.Debug("association attempt failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
		} else if m.net.IsUp(ctx) {
			m.transition(Connected)
			return
		}

		if attempt < m.retries {
			select {
			case <-time.After(m.delay):
			case <-ctx.Done():
				m.transition(Disconnected)
				return
			}
		}
	}

	m.transition(Disconnected)
}

// transition changes state and logs it. Transitions are the only link events
// worth logging; per-check health results are not.
func (m *Manager) transition(next State) {
	if m.state == next {
		return
	}
	m.logger.Info("link state changed",
		slog.String("from", m.state.String()),
		slog.String("to", next.String()))
	m.state = next
}
