// Package monitor times every named external operation, warns on slow calls
// and detects operations that started but never ended: a call that hung on a
// dead upstream, or whose result was abandoned by a bug.
//
// Hang handling is advisory. Sweeping an operation logs it and evicts it
// from the in-flight map so the map cannot grow without bound; it does not
// cancel the underlying call.
package monitor

import (
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Operation is one in-flight tracked call.
type Operation struct {
	CorrelationID string         `json:"correlation_id"`
	Service       string         `json:"service"`
	Name          string         `json:"operation"`
	StartTime     time.Time      `json:"start_time"`
	Context       map[string]any `json:"context,omitempty"`
}

// Health is the monitor's self-report, exposed on the ops surface.
type Health struct {
	Healthy           bool `json:"healthy"`
	ActiveOperations  int  `json:"active_operations"`
	HangingOperations int  `json:"hanging_operations"`
}

// Monitor tracks in-flight operations keyed by correlation id. Safe for
// concurrent use.
type Monitor struct {
	logger        *log.Helper
	clock         Clock
	slowThreshold time.Duration
	hangTimeout   time.Duration

	mu     sync.Mutex
	active map[string]*Operation
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithClock injects a clock, used by tests.
func WithClock(c Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithSlowThreshold sets the duration above which a finished operation is
// logged as slow. Default 3s.
func WithSlowThreshold(d time.Duration) Option {
	return func(m *Monitor) { m.slowThreshold = d }
}

// WithHangTimeout sets the age at which an in-flight operation counts as
// hanging. Default 2m.
func WithHangTimeout(d time.Duration) Option {
	return func(m *Monitor) { m.hangTimeout = d }
}

// New creates a Monitor.
func New(logger log.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		logger:        log.NewHelper(logger),
		clock:         realClock{},
		slowThreshold: 3 * time.Second,
		hangTimeout:   2 * time.Minute,
		active:        make(map[string]*Operation),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartOperation registers an operation and returns its correlation id.
// When correlationID is given it threads an existing id (e.g. from an
// incoming webhook) through the telemetry instead of minting a new one.
func (m *Monitor) StartOperation(service, operation string, context map[string]any, correlationID ...string) string {
	id := ""
	if len(correlationID) > 0 && correlationID[0] != "" {
		id = correlationID[0]
	} else {
		id = uuid.NewString()
	}

	op := &Operation{
		CorrelationID: id,
		Service:       service,
		Name:          operation,
		StartTime:     m.clock.Now(),
		Context:       context,
	}

	m.mu.Lock()
	m.active[id] = op
	m.mu.Unlock()

	m.logger.Debugw("msg", "operation started",
		"correlation_id", id,
		"service", service,
		"operation", operation,
	)
	return id
}

// EndOperation closes the operation, emits its duration and removes it from
// the in-flight map. Unknown ids (already swept, or never started) are
// logged and ignored. extra key/value pairs are appended to the log record.
func (m *Monitor) EndOperation(id string, success bool, opErr error, extra ...any) time.Duration {
	m.mu.Lock()
	op, ok := m.active[id]
	if ok {
		delete(m.active, id)
	}
	m.mu.Unlock()

	if !ok {
		m.logger.Warnw("msg", "end for unknown operation", "correlation_id", id)
		return 0
	}

	duration := m.clock.Now().Sub(op.StartTime)

	kvs := []any{
		"msg", "operation finished",
		"correlation_id", op.CorrelationID,
		"service", op.Service,
		"operation", op.Name,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	}
	kvs = append(kvs, extra...)

	switch {
	case !success:
		if opErr != nil {
			kvs = append(kvs, "error", opErr.Error())
		}
		m.logger.Errorw(kvs...)
	case duration > m.slowThreshold:
		m.logger.Warnw(append(kvs, "slow", true)...)
	default:
		m.logger.Infow(kvs...)
	}
	return duration
}

// HangingOperations returns the in-flight operations older than olderThan,
// without evicting them.
func (m *Monitor) HangingOperations(olderThan time.Duration) []Operation {
	cutoff := m.clock.Now().Add(-olderThan)

	m.mu.Lock()
	defer m.mu.Unlock()

	var hung []Operation
	for _, op := range m.active {
		if op.StartTime.Before(cutoff) {
			hung = append(hung, *op)
		}
	}
	return hung
}

// Sweep logs and evicts every operation older than the hang timeout,
// returning how many were evicted. Intended to run on a fixed schedule.
func (m *Monitor) Sweep() int {
	cutoff := m.clock.Now().Add(-m.hangTimeout)

	m.mu.Lock()
	var evicted []*Operation
	for id, op := range m.active {
		if op.StartTime.Before(cutoff) {
			evicted = append(evicted, op)
			delete(m.active, id)
		}
	}
	m.mu.Unlock()

	for _, op := range evicted {
		m.logger.Errorw("msg", "hanging operation evicted",
			"correlation_id", op.CorrelationID,
			"service", op.Service,
			"operation", op.Name,
			"age_ms", m.clock.Now().Sub(op.StartTime).Milliseconds(),
		)
	}
	return len(evicted)
}

// Health reports the in-flight and hanging counts. Healthy means no
// operation has exceeded the hang timeout.
func (m *Monitor) Health() Health {
	hanging := len(m.HangingOperations(m.hangTimeout))

	m.mu.Lock()
	active := len(m.active)
	m.mu.Unlock()

	return Health{
		Healthy:           hanging == 0,
		ActiveOperations:  active,
		HangingOperations: hanging,
	}
}
