// Package loop implements the single-threaded cooperative scheduler that
// drives the pipeline. One goroutine polls elapsed time against independent
// interval gates and invokes each component only when its interval has
// elapsed. No component blocks waiting on another, and all shared state is
// touched only from this one goroutine, so no locking is needed anywhere in
// the pipeline.
package loop

import (
	"context"
	"io"
	"log/slog"
	"time"
)

const defaultResolution = 50 * time.Millisecond

// Func is one scheduled unit of work. A Func may block briefly (a bounded
// association cycle, a single synchronous send); while it does, only later
// tasks of the same tick wait, never the process.
type Func func(ctx context.Context)

// Interval gates a task to a fixed cadence. The next deadline is advanced
// from the current time, not the previous deadline, so a slow tick delays
// the following run instead of causing a burst of catch-up runs.
type Interval struct {
	every time.Duration
	next  time.Time
}

// NewInterval creates a gate that is immediately due.
func NewInterval(every time.Duration) *Interval {
	return &Interval{every: every}
}

// Due reports whether the interval has elapsed, and arms the next deadline
// when it has.
func (i *Interval) Due(now time.Time) bool {
	if now.Before(i.next) {
		return false
	}
	i.next = now.Add(i.every)
	return true
}

type task struct {
	name string
	gate *Interval
	fn   Func
}

// WithResolution sets the polling resolution of the loop. It bounds how late
// a task can start after its interval elapses and must stay well below the
// smallest task interval.
func WithResolution(d time.Duration) func(*Loop) {
	return func(l *Loop) {
		l.resolution = d
	}
}

// WithLogger sets the logger for the loop.
func WithLogger(logger *slog.Logger) func(*Loop) {
	return func(l *Loop) {
		l.logger = logger.With(slog.String("component", "loop"))
	}
}

// Loop is the control loop. Tasks run in registration order within a tick,
// which the wiring uses to sample before publishing.
type Loop struct {
	tasks      []task
	resolution time.Duration
	logger     *slog.Logger
}

// New creates an empty Loop.
func New(options ...func(*Loop)) *Loop {
	l := Loop{
		resolution: defaultResolution,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&l)
	}

	return &l
}

// Add registers a task with its own interval gate.
func (l *Loop) Add(name string, every time.Duration, fn Func) *Loop {
	l.tasks = append(l.tasks, task{name: name, gate: NewInterval(every), fn: fn})
	return l
}

// Run polls until the context is cancelled. Every due task runs to
// completion on this goroutine; there is never more than one task in flight.
func (l *Loop) Run(ctx context.Context) error {
	if len(l.tasks) == 0 {
		return nil
	}

	l.logger.Info("control loop started", slog.Int("tasks", len(l.tasks)))

	ticker := time.NewTicker(l.resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("control loop stopped")
			return ctx.Err()
		case now := <-ticker.C:
			l.runDue(ctx, now)
		}
	}
}

func (l *Loop) runDue(ctx context.Context, now time.Time) {
	for i := range l.tasks {
		if ctx.Err() != nil {
			return
		}
		if l.tasks[i].gate.Due(now) {
			l.tasks[i].fn(ctx)
		}
	}
}
