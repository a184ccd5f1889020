package log

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
)

// LogHelper extends Kratos log.Helper with component-tagged convenience
// methods. Each method attaches a "type" field which the EmojiConsoleEncoder
// maps to a marker in development output.
type LogHelper struct {
	*log.Helper
}

// NewLogHelper creates the enriched log helper
func NewLogHelper(logger log.Logger) *LogHelper {
	return &LogHelper{
		Helper: log.NewHelper(logger),
	}
}

// PMS records property-management-system call logs (emoji: 🏨)
func (h *LogHelper) PMS(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "pms")
	h.Infow(allKvs...)
}

// Gateway records message-gateway call logs (emoji: 📨)
func (h *LogHelper) Gateway(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "gateway")
	h.Infow(allKvs...)
}

// Queue records message-queue lifecycle logs (emoji: 📬)
func (h *LogHelper) Queue(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "queue")
	h.Infow(allKvs...)
}

// Dispatch records queue dispatch-cycle logs (emoji: 📤)
func (h *LogHelper) Dispatch(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "dispatch")
	h.Infow(allKvs...)
}

// Breaker records circuit breaker transition logs (emoji: 🔌)
func (h *LogHelper) Breaker(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "breaker")
	h.Warnw(allKvs...)
}

// Cache records cache hit/miss/eviction logs (emoji: 📦)
func (h *LogHelper) Cache(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "cache")
	h.Debugw(allKvs...)
}

// RateLimit records rate-limit deferral logs (emoji: 🚦)
func (h *LogHelper) RateLimit(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "rate_limit")
	h.Warnw(allKvs...)
}

// Database records database operation logs (emoji: 💾)
func (h *LogHelper) Database(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "database")
	h.Debugw(allKvs...)
}

// Monitor records operation-monitoring logs (emoji: ⏱️)
func (h *LogHelper) Monitor(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "monitor")
	h.Infow(allKvs...)
}

// Startup records service startup logs (emoji: 🚀)
func (h *LogHelper) Startup(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "startup")
	h.Infow(allKvs...)
}

// Success records successful operation logs (emoji: ✅)
func (h *LogHelper) Success(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "success")
	h.Infow(allKvs...)
}

// Housekeeping records retention/purge logs (emoji: 🧹)
func (h *LogHelper) Housekeeping(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "housekeeping")
	h.Infow(allKvs...)
}

// Request records HTTP request logs (emoji: 🌐 or status-derived)
func (h *LogHelper) Request(method, url string, status int, durationMs int64, kvs ...interface{}) {
	msg := fmt.Sprintf("%s %s - %d (%dms)", method, url, status, durationMs)
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"type", "request",
		"method", method,
		"url", url,
		"status", status,
		"duration_ms", durationMs,
	)
	h.Infow(allKvs...)
}

// SlowRequest records a slow-request warning (emoji: 🐌).
// threshold is in milliseconds; callers invoke it once duration exceeds it.
func (h *LogHelper) SlowRequest(ctx context.Context, method, url string, duration, threshold int64, kvs ...interface{}) {
	reqCtx := GetRequestContext(ctx)

	msg := fmt.Sprintf("[%s] Slow request detected | %s %s | %dms (threshold: %dms)",
		reqCtx.RequestID, method, url, duration, threshold)

	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"request_id", reqCtx.RequestID,
		"method", method,
		"url", url,
		"duration_ms", duration,
		"threshold_ms", threshold,
		"type", "slow_request",
	)
	h.Warnw(allKvs...)
}

// RequestWithContext records an HTTP request log with the request id pulled
// from the context, and auto-flags slow requests (threshold 1000ms).
func (h *LogHelper) RequestWithContext(ctx context.Context, method, url string, status int, durationMs int64, kvs ...interface{}) {
	reqCtx := GetRequestContext(ctx)

	msg := fmt.Sprintf("%s %s - %d (%dms) | RequestID: %s",
		method, url, status, durationMs, reqCtx.RequestID)

	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"type", "request",
		"request_id", reqCtx.RequestID,
		"method", method,
		"url", url,
		"status", status,
		"duration_ms", durationMs,
	)
	h.Infow(allKvs...)

	if durationMs > 1000 {
		h.SlowRequest(ctx, method, url, durationMs, 1000)
	}
}

// CacheStats records cache statistics (emoji: 📦)
func (h *LogHelper) CacheStats(cacheName string, size, maxSize, hits, misses int64, kvs ...interface{}) {
	var hitRate float64
	total := hits + misses
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	msg := fmt.Sprintf("Cache stats - %s | Size: %d/%d, Hit Rate: %.2f%%",
		cacheName, size, maxSize, hitRate)

	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"cache_name", cacheName,
		"size", size,
		"max_size", maxSize,
		"hits", hits,
		"misses", misses,
		"hit_rate", fmt.Sprintf("%.2f%%", hitRate),
		"total_requests", total,
		"type", "cache",
	)
	h.Infow(allKvs...)
}

// DispatchSummary records the outcome of one dispatch cycle (emoji: 📤)
func (h *LogHelper) DispatchSummary(sent, deferred, failed int, kvs ...interface{}) {
	msg := fmt.Sprintf("Dispatch cycle completed - Sent: %d, Deferred: %d, Failed: %d",
		sent, deferred, failed)
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"sent", sent,
		"deferred", deferred,
		"failed", failed,
		"type", "dispatch",
	)
	h.Infow(allKvs...)
}

// UpstreamWithContext records an upstream call log with the request id
// pulled from the context.
func (h *LogHelper) UpstreamWithContext(ctx context.Context, service, operation, msg string, kvs ...interface{}) {
	reqCtx := GetRequestContext(ctx)

	fullMsg := fmt.Sprintf("[%s] %s", reqCtx.RequestID, msg)

	logType := "pms"
	if service == "gateway" {
		logType = "gateway"
	}

	allKvs := append([]interface{}{"msg", fullMsg}, kvs...)
	allKvs = append(allKvs,
		"request_id", reqCtx.RequestID,
		"service", service,
		"operation", operation,
		"type", logType,
	)
	h.Infow(allKvs...)
}
