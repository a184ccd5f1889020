package breaker

import (
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// Status is the operational snapshot of one named breaker.
type Status struct {
	Name        string        `json:"name"`
	State       string        `json:"state"`
	Config      Config        `json:"config"`
	TotalCalls  int64         `json:"total_calls"`
	Successes   int64         `json:"successes"`
	Failures    int64         `json:"failures"`
	Rejected    int64         `json:"rejected"`
	FailureRate float64       `json:"failure_rate"`
	AvgResponse time.Duration `json:"avg_response"`
}

// Registry creates and holds named breakers, one per logical upstream
// capability (e.g. "pms.availability", "gateway.send"), so a failing
// booking path does not trip availability lookups.
//
// A Registry is constructed explicitly and passed to its consumers; there
// is exactly one per process instance and its state is process-local.
type Registry struct {
	defaults      Config
	clock         Clock
	onStateChange OnStateChangeFunc
	logger        *log.Helper

	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithRegistryClock injects the clock handed to every created breaker.
func WithRegistryClock(c Clock) RegistryOption {
	return func(r *Registry) { r.clock = c }
}

// WithRegistryObserver registers an extra transition observer attached to
// every created breaker, in addition to the registry's own state logging.
func WithRegistryObserver(fn OnStateChangeFunc) RegistryOption {
	return func(r *Registry) { r.onStateChange = fn }
}

// NewRegistry creates a registry whose breakers default to cfg.
func NewRegistry(cfg Config, logger log.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		defaults: cfg,
		clock:    realClock{},
		logger:   log.NewHelper(logger),
		breakers: make(map[string]*Breaker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the breaker for name, creating it on first use.
// Idempotent per name: the first caller's config wins and later overrides
// for the same name are ignored.
func (r *Registry) GetOrCreate(name string, override ...Config) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}

	cfg := r.defaults
	if len(override) > 0 {
		cfg = override[0]
	}

	b = New(name, cfg,
		WithClock(r.clock),
		WithOnStateChange(r.observe),
	)
	r.breakers[name] = b

	r.logger.Debugw("msg", "circuit breaker created",
		"breaker", name,
		"failure_threshold", cfg.FailureThreshold,
		"recovery_timeout", cfg.RecoveryTimeout,
	)
	return b
}

// Get returns the breaker for name, or nil when it was never created.
func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.breakers[name]
}

// Reset resets the named breaker. Returns false when the name is unknown.
func (r *Registry) Reset(name string) bool {
	b := r.Get(name)
	if b == nil {
		return false
	}
	b.Reset()
	r.logger.Infow("msg", "circuit breaker reset", "breaker", name)
	return true
}

// ResetAll resets every breaker in the registry.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	all := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		all = append(all, b)
	}
	r.mu.RUnlock()

	for _, b := range all {
		b.Reset()
	}
	r.logger.Infow("msg", "all circuit breakers reset", "count", len(all))
}

// Statuses returns an operational snapshot of every breaker, keyed by name.
func (r *Registry) Statuses() map[string]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.clock.Now()
	out := make(map[string]Status, len(r.breakers))
	for name, b := range r.breakers {
		m := b.Metrics()
		out[name] = Status{
			Name:        name,
			State:       b.State().String(),
			Config:      b.Config(),
			TotalCalls:  m.TotalCalls,
			Successes:   m.Successes,
			Failures:    m.Failures,
			Rejected:    m.Rejected,
			FailureRate: m.FailureRate(),
			AvgResponse: m.AverageResponseTime(now),
		}
	}
	return out
}

// observe logs every transition and fans out to the optional extra
// observer. Runs outside the breaker lock.
func (r *Registry) observe(name string, from, to State) {
	switch to {
	case Open:
		r.logger.Warnw("msg", "circuit breaker opened",
			"breaker", name, "from", from.String(), "to", to.String())
	case Closed:
		r.logger.Infow("msg", "circuit breaker closed",
			"breaker", name, "from", from.String(), "to", to.String())
	default:
		r.logger.Infow("msg", "circuit breaker half-open",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	if r.onStateChange != nil {
		r.onStateChange(name, from, to)
	}
}
