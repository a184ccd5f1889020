package data

import (
	"context"

	"StayBridge/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// LogAlertNotifier surfaces operator alerts as structured logs. A future
// webhook-backed notifier can replace it behind the same interface.
type LogAlertNotifier struct {
	logger *log.Helper
}

// NewLogAlertNotifier creates a new log-backed alert notifier.
func NewLogAlertNotifier(logger log.Logger) *LogAlertNotifier {
	return &LogAlertNotifier{
		logger: log.NewHelper(logger),
	}
}

// NotifyBreakerOpened reports a circuit breaker tripping open.
func (n *LogAlertNotifier) NotifyBreakerOpened(ctx context.Context, event *model.BreakerOpenedEvent) error {
	n.logger.Warnw("alert: circuit breaker opened",
		"event", model.AlertEventBreakerOpened,
		"breaker", event.Name,
		"failure_rate", event.FailureRate,
		"opened_at", event.OpenedAt)
	return nil
}

// NotifyBreakerClosed reports a circuit breaker recovering.
func (n *LogAlertNotifier) NotifyBreakerClosed(ctx context.Context, event *model.BreakerClosedEvent) error {
	n.logger.Infow("alert: circuit breaker recovered",
		"event", model.AlertEventBreakerClosed,
		"breaker", event.Name,
		"probe_count", event.ProbeCount,
		"open_for", event.OpenFor)
	return nil
}

// NotifyJobExhausted reports a message job failing terminally after
// exhausting its retries.
func (n *LogAlertNotifier) NotifyJobExhausted(ctx context.Context, event *model.JobExhaustedEvent) error {
	n.logger.Errorw("alert: message job exhausted retries",
		"event", model.AlertEventJobExhausted,
		"job_id", event.JobID,
		"recipient", event.Recipient,
		"attempts", event.Attempts,
		"last_error", event.LastError,
		"failed_at", event.FailedAt)
	return nil
}
