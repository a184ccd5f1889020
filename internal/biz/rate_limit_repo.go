package biz

import (
	"context"
	"time"
)

// RateLimitRepo defines the recipient rate-limit window store interface.
// Following Kratos v2 DDD architecture, interfaces are defined in biz layer.
// Implementation is in data layer (data.RateLimitStore).
type RateLimitRepo interface {
	// Count returns the number of messages delivered to the recipient in
	// the current window.
	Count(ctx context.Context, recipient string) (int, error)

	// Increment records one delivered message for the recipient, opening a
	// new window if none is active.
	Increment(ctx context.Context, recipient string, now time.Time) error

	// NextSlot returns the earliest time a deferred message may run: the
	// end of the recipient's active window, or now when no window is open.
	NextSlot(ctx context.Context, recipient string, now time.Time) (time.Time, error)

	// Window returns the configured window size.
	Window() time.Duration
}
