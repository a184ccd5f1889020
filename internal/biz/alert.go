package biz

import (
	"context"

	"StayBridge/internal/model"
)

// AlertNotifier defines the interface for operational alert notifications
type AlertNotifier interface {
	// NotifyBreakerOpened sends notification when a circuit breaker opens
	NotifyBreakerOpened(ctx context.Context, event *model.BreakerOpenedEvent) error

	// NotifyBreakerClosed sends notification when a circuit breaker recovers
	NotifyBreakerClosed(ctx context.Context, event *model.BreakerClosedEvent) error

	// NotifyJobExhausted sends notification when a message job runs out of retries
	NotifyJobExhausted(ctx context.Context, event *model.JobExhaustedEvent) error
}
