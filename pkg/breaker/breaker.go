// Package breaker implements a per-dependency circuit breaker used to guard
// every outbound call StayBridge makes to an unreliable upstream (PMS,
// messaging gateway, LLM provider).
//
// A breaker is an admission-control state machine: it never retries on its
// own. Retry policy belongs to the caller (see internal/biz/queue.go).
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// Closed is the normal operating state. Calls pass through.
	Closed State = iota

	// Open is the tripped state. Calls are rejected immediately.
	Open

	// HalfOpen is the recovery-probing state. Calls are allowed through
	// one at a time until enough succeed to close the circuit.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when the circuit is open and rejecting calls without
// attempting the upstream operation.
var ErrOpen = errors.New("breaker: circuit open")

// ErrTimeout is returned when the wrapped operation exceeded the per-call
// timeout. It is a distinct error kind from an upstream-reported failure,
// but both feed the same failure counter.
var ErrTimeout = errors.New("breaker: call timed out")

// IsOpen reports whether err is an open-circuit rejection.
func IsOpen(err error) bool {
	return errors.Is(err, ErrOpen)
}

// IsTimeout reports whether err is a breaker-enforced call timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds the immutable per-breaker tuning parameters.
type Config struct {
	// FailureThreshold is the number of consecutive failures in Closed
	// before the circuit opens.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before the next
	// call is allowed through as a half-open probe.
	RecoveryTimeout time.Duration

	// HalfOpenMaxCalls is the number of probe successes required in
	// HalfOpen before the circuit closes again.
	HalfOpenMaxCalls int

	// Timeout is the per-call deadline. Exceeding it counts as a failure.
	// Zero disables the deadline.
	Timeout time.Duration

	// MonitoringPeriod is advisory, used by callers to size metrics
	// windows. The breaker itself does not act on it.
	MonitoringPeriod time.Duration
}

// DefaultConfig returns the breaker defaults used when a caller does not
// override them.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenMaxCalls: 2,
		Timeout:          10 * time.Second,
		MonitoringPeriod: time.Minute,
	}
}

// OnStateChangeFunc is invoked after every state transition, including
// forced and manual ones. It runs outside the breaker lock.
type OnStateChangeFunc func(name string, from, to State)

// Metrics accumulates call counts independently of breaker state. It is only
// reset by an explicit Reset.
type Metrics struct {
	TotalCalls    int64
	Successes     int64
	Failures      int64
	Rejected      int64
	LastResetTime time.Time
}

// FailureRate returns Failures / TotalCalls, or 0 with no calls.
func (m Metrics) FailureRate() float64 {
	if m.TotalCalls == 0 {
		return 0
	}
	return float64(m.Failures) / float64(m.TotalCalls)
}

// SuccessRate returns Successes / TotalCalls, or 0 with no calls.
func (m Metrics) SuccessRate() float64 {
	if m.TotalCalls == 0 {
		return 0
	}
	return float64(m.Successes) / float64(m.TotalCalls)
}

// AverageResponseTime returns uptime since the last reset divided by total
// calls: a coarse per-call pacing figure, not a latency percentile.
func (m Metrics) AverageResponseTime(now time.Time) time.Duration {
	if m.TotalCalls == 0 {
		return 0
	}
	return now.Sub(m.LastResetTime) / time.Duration(m.TotalCalls)
}

// Func is the signature of a protected operation.
type Func func(ctx context.Context) error

// Breaker guards a single logical upstream dependency. Safe for concurrent
// use; all state transitions happen under one mutex so no two goroutines can
// flip Closed to Open from stale counts.
type Breaker struct {
	name          string
	cfg           Config
	clock         Clock
	onStateChange OnStateChangeFunc

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	nextAttemptTime time.Time
	metrics         Metrics
}

// Option customizes a Breaker beyond its Config.
type Option func(*Breaker)

// WithClock injects a clock, used by tests to control time.
func WithClock(c Clock) Option {
	return func(b *Breaker) { b.clock = c }
}

// WithOnStateChange registers a transition observer.
func WithOnStateChange(fn OnStateChangeFunc) Option {
	return func(b *Breaker) { b.onStateChange = fn }
}

// New creates a breaker in the Closed state.
func New(name string, cfg Config, opts ...Option) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultConfig().RecoveryTimeout
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = DefaultConfig().HalfOpenMaxCalls
	}
	b := &Breaker{
		name:  name,
		cfg:   cfg,
		clock: realClock{},
		state: Closed,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.metrics.LastResetTime = b.clock.Now()
	return b
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// Config returns the immutable breaker configuration.
func (b *Breaker) Config() Config { return b.cfg }

// State returns the current state, applying the Open to HalfOpen transition
// if the recovery timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Peek only: the actual transition happens on the next admitted call,
	// so State() stays side-effect free for status endpoints.
	if b.state == Open && !b.clock.Now().Before(b.nextAttemptTime) {
		return HalfOpen
	}
	return b.state
}

// Metrics returns a snapshot of the cumulative call metrics.
func (b *Breaker) Metrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.metrics
}

// Do executes fn under the breaker's admission control, racing it against
// the configured per-call timeout. timeoutOverride, when positive, replaces
// the configured timeout for this call only.
//
// The timeout is the only cancellation primitive and it is advisory: the
// breaker stops waiting and counts the call as failed, but does not cancel
// the in-flight upstream request.
func (b *Breaker) Do(ctx context.Context, fn Func, timeoutOverride ...time.Duration) error {
	if transition, err := b.allow(); err != nil {
		return err
	} else if transition != nil {
		transition()
	}

	timeout := b.cfg.Timeout
	if len(timeoutOverride) > 0 && timeoutOverride[0] > 0 {
		timeout = timeoutOverride[0]
	}

	err := b.execute(ctx, fn, timeout)
	b.record(err)
	return err
}

func (b *Breaker) execute(ctx context.Context, fn Func, timeout time.Duration) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		// The goroutine result is abandoned; a late success is not
		// credited back.
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}

// allow decides whether the call may proceed. When the recovery timeout has
// elapsed in Open, the call is admitted and the breaker moves to HalfOpen
// before the operation executes. The returned func fires the observer
// outside the lock.
func (b *Breaker) allow() (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.clock.Now().Before(b.nextAttemptTime) {
			b.metrics.Rejected++
			return nil, fmt.Errorf("%w: %s until %s", ErrOpen, b.name, b.nextAttemptTime.Format(time.RFC3339))
		}
		return b.transitionLocked(HalfOpen), nil
	default:
		return nil, nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()

	b.metrics.TotalCalls++
	var notify func()
	if err != nil {
		b.metrics.Failures++
		b.failureCount++
		b.lastFailureTime = b.clock.Now()

		switch b.state {
		case Closed:
			if b.failureCount >= b.cfg.FailureThreshold {
				notify = b.openLocked()
			}
		case HalfOpen:
			// A single probe failure discards partial probe progress.
			notify = b.openLocked()
		}
	} else {
		b.metrics.Successes++
		switch b.state {
		case Closed:
			b.failureCount = 0
		case HalfOpen:
			b.successCount++
			if b.successCount >= b.cfg.HalfOpenMaxCalls {
				notify = b.transitionLocked(Closed)
			}
		}
	}

	b.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// openLocked moves to Open and stamps nextAttemptTime, which is the sole
// authority for the Open to HalfOpen transition.
func (b *Breaker) openLocked() func() {
	b.nextAttemptTime = b.clock.Now().Add(b.cfg.RecoveryTimeout)
	return b.transitionLocked(Open)
}

// transitionLocked changes state and resets the per-state counters.
// failureCount goes back to zero on every entry into Closed.
func (b *Breaker) transitionLocked(to State) func() {
	if b.state == to {
		return nil
	}
	from := b.state
	b.state = to
	b.failureCount = 0
	b.successCount = 0

	if b.onStateChange == nil {
		return nil
	}
	name := b.name
	fn := b.onStateChange
	return func() { fn(name, from, to) }
}

// Reset returns the breaker to Closed, zeroes all counters and clears the
// cumulative metrics. Operator control; bypasses normal transition rules.
func (b *Breaker) Reset() {
	b.mu.Lock()
	notify := b.transitionLocked(Closed)
	b.failureCount = 0
	b.successCount = 0
	b.lastFailureTime = time.Time{}
	b.nextAttemptTime = time.Time{}
	b.metrics = Metrics{LastResetTime: b.clock.Now()}
	b.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// ForceOpen trips the breaker regardless of counts.
func (b *Breaker) ForceOpen() {
	b.mu.Lock()
	notify := b.openLocked()
	b.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// ForceClose closes the breaker regardless of counts.
func (b *Breaker) ForceClose() {
	b.mu.Lock()
	notify := b.transitionLocked(Closed)
	b.nextAttemptTime = time.Time{}
	b.mu.Unlock()
	if notify != nil {
		notify()
	}
}
