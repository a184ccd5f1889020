package data

import (
	"context"
	"fmt"
	"time"

	"StayBridge/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

// RateLimitStore implements biz.RateLimitRepo on Redis.
// One active window per recipient: a counter key whose TTL equals the
// window size, plus a window-start key sharing the same TTL so the window
// end can be computed for deferrals.
//
// The store degrades open: when Redis is unreachable the caller is told the
// recipient has capacity, since dropping guest messages is worse than
// briefly exceeding the pacing limit.
type RateLimitStore struct {
	rdb    *redis.Client
	window time.Duration
	logger *log.Helper
}

// NewRateLimitStore creates a new recipient rate-limit window store.
func NewRateLimitStore(c *conf.Queue, rdb *redis.Client, logger log.Logger) *RateLimitStore {
	window := time.Minute
	if c != nil && c.RateWindow > 0 {
		window = c.RateWindow
	}
	return &RateLimitStore{
		rdb:    rdb,
		window: window,
		logger: log.NewHelper(logger),
	}
}

// Count returns the number of messages sent to the recipient within the
// current window. Missing key means zero.
func (r *RateLimitStore) Count(ctx context.Context, recipient string) (int, error) {
	if r.rdb == nil {
		return 0, nil
	}

	count, err := r.rdb.Get(ctx, windowCountKey(recipient)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		r.logger.Warnw("rate limit count unavailable, degrading open",
			"recipient", recipient,
			"error", err.Error())
		return 0, nil
	}
	return count, nil
}

// Increment records one delivered message for the recipient. The first
// increment of a window also stamps the window start and sets both keys to
// expire when the window ends.
func (r *RateLimitStore) Increment(ctx context.Context, recipient string, now time.Time) error {
	if r.rdb == nil {
		return nil
	}

	count, err := r.rdb.Incr(ctx, windowCountKey(recipient)).Result()
	if err != nil {
		return fmt.Errorf("failed to increment rate limit window: %w", err)
	}

	if count == 1 {
		pipe := r.rdb.Pipeline()
		pipe.Set(ctx, windowStartKey(recipient), now.UnixMilli(), r.window)
		pipe.Expire(ctx, windowCountKey(recipient), r.window)
		if _, err := pipe.Exec(ctx); err != nil {
			r.logger.Warnw("failed to stamp rate limit window start",
				"recipient", recipient,
				"error", err.Error())
			// Counter is still incremented; the window just lacks a start
			// stamp and NextSlot falls back to now+window.
		}
	}

	return nil
}

// NextSlot returns the end of the recipient's current window, the earliest
// time a deferred message may be scheduled. Without an active window the
// next slot is now.
func (r *RateLimitStore) NextSlot(ctx context.Context, recipient string, now time.Time) (time.Time, error) {
	if r.rdb == nil {
		return now, nil
	}

	startMs, err := r.rdb.Get(ctx, windowStartKey(recipient)).Int64()
	if err == redis.Nil {
		// Counter without a start stamp (stamp write failed) or no window
		// at all; be conservative and push one full window out only when a
		// counter exists.
		exists, exErr := r.rdb.Exists(ctx, windowCountKey(recipient)).Result()
		if exErr != nil || exists == 0 {
			return now, nil
		}
		return now.Add(r.window), nil
	}
	if err != nil {
		r.logger.Warnw("rate limit window start unavailable, degrading open",
			"recipient", recipient,
			"error", err.Error())
		return now, nil
	}

	windowEnd := time.UnixMilli(startMs).Add(r.window)
	if windowEnd.Before(now) {
		return now, nil
	}
	return windowEnd, nil
}

// Window returns the configured window size.
func (r *RateLimitStore) Window() time.Duration {
	return r.window
}

// windowCountKey generates the Redis key for a recipient's window counter.
// Format: ratewin:{recipient}:count
func windowCountKey(recipient string) string {
	return fmt.Sprintf("ratewin:%s:count", recipient)
}

// windowStartKey generates the Redis key for a recipient's window start.
// Format: ratewin:{recipient}:start
func windowStartKey(recipient string) string {
	return fmt.Sprintf("ratewin:%s:start", recipient)
}
