package biz

import (
	"context"
	"sync"
	"time"

	"StayBridge/internal/conf"
	"StayBridge/internal/model"
	"StayBridge/pkg/breaker"
	"StayBridge/pkg/cache"
	"StayBridge/pkg/monitor"

	"github.com/go-kratos/kratos/v2/log"
)

// NewBreakerRegistry builds the shared circuit breaker registry from config.
// Registry-created breakers share one default config; callers may still pass
// a per-name override on first GetOrCreate. State transitions into Open and
// out of recovery are forwarded to the alert notifier.
func NewBreakerRegistry(c *conf.Breaker, notifier AlertNotifier, logger log.Logger) *breaker.Registry {
	cfg := breaker.DefaultConfig()
	if c != nil {
		if c.FailureThreshold > 0 {
			cfg.FailureThreshold = c.FailureThreshold
		}
		if c.RecoveryTimeout > 0 {
			cfg.RecoveryTimeout = c.RecoveryTimeout
		}
		if c.HalfOpenMaxCalls > 0 {
			cfg.HalfOpenMaxCalls = c.HalfOpenMaxCalls
		}
		if c.Timeout > 0 {
			cfg.Timeout = c.Timeout
		}
		if c.MonitoringPeriod > 0 {
			cfg.MonitoringPeriod = c.MonitoringPeriod
		}
	}

	var (
		mu       sync.Mutex
		openedAt = make(map[string]time.Time)
		reg      *breaker.Registry
	)
	observer := func(name string, from, to breaker.State) {
		ctx := context.Background()
		switch to {
		case breaker.Open:
			now := time.Now()
			mu.Lock()
			openedAt[name] = now
			mu.Unlock()

			var rate float64
			if b := reg.Get(name); b != nil {
				rate = b.Metrics().FailureRate()
			}
			_ = notifier.NotifyBreakerOpened(ctx, &model.BreakerOpenedEvent{
				Name:        name,
				FailureRate: rate,
				OpenedAt:    now,
			})
		case breaker.Closed:
			if from == breaker.Closed {
				return
			}
			mu.Lock()
			since, ok := openedAt[name]
			delete(openedAt, name)
			mu.Unlock()

			var openFor time.Duration
			if ok {
				openFor = time.Since(since)
			}
			_ = notifier.NotifyBreakerClosed(ctx, &model.BreakerClosedEvent{
				Name:       name,
				ProbeCount: cfg.HalfOpenMaxCalls,
				OpenFor:    openFor,
			})
		}
	}

	reg = breaker.NewRegistry(cfg, logger, breaker.WithRegistryObserver(observer))
	return reg
}

// NewMonitor builds the operation monitor from config.
func NewMonitor(c *conf.Monitor, logger log.Logger) *monitor.Monitor {
	var opts []monitor.Option
	if c != nil {
		if c.SlowThreshold > 0 {
			opts = append(opts, monitor.WithSlowThreshold(c.SlowThreshold))
		}
		if c.HangTimeout > 0 {
			opts = append(opts, monitor.WithHangTimeout(c.HangTimeout))
		}
	}
	return monitor.New(logger, opts...)
}

// NewResponseCache builds the upstream response cache from config.
func NewResponseCache(c *conf.Cache) (*cache.Cache[any], error) {
	maxSize := 1000
	defaultTTL := 5 * time.Minute
	if c != nil {
		if c.MaxSize > 0 {
			maxSize = c.MaxSize
		}
		if c.DefaultTTL > 0 {
			defaultTTL = c.DefaultTTL
		}
	}
	return cache.New[any](maxSize, defaultTTL)
}
