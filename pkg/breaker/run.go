package breaker

import (
	"context"
	"time"
)

// Run executes fn under b's admission control and returns its typed result.
// Convenience wrapper for operations that return a value.
func Run[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error), timeoutOverride ...time.Duration) (T, error) {
	var result T
	err := b.Do(ctx, func(ctx context.Context) error {
		var fnErr error
		result, fnErr = fn(ctx)
		return fnErr
	}, timeoutOverride...)
	return result, err
}
