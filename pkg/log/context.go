package log

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// contextKey is a private key type for storing RequestContext
type contextKey string

const requestContextKey contextKey = "staybridge_request_context"

// RequestContext carries per-request tracing information across modules.
type RequestContext struct {
	RequestID     string                 // short 10-char id, e.g. mgrn0zfqda
	GuestID       string                 // guest identifier when known
	ReservationID string                 // reservation identifier when known
	StartTime     time.Time              // request start time
	Metadata      map[string]interface{} // extension metadata
}

var (
	randSource = rand.NewSource(time.Now().UnixNano())
	randMutex  sync.Mutex
	// base36 charset (lowercase letters + digits)
	base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateRequestID produces a 10-char random request id.
// base36 keeps ids short and cheap compared to full UUIDs.
func GenerateRequestID() string {
	randMutex.Lock()
	defer randMutex.Unlock()

	b := make([]byte, 10)
	for i := range b {
		b[i] = base36Chars[randSource.Int63()%36]
	}
	return string(b)
}

// WithRequestContext injects a RequestContext into the context.
// Usually called in middleware to cover the whole request lifecycle.
func WithRequestContext(ctx context.Context, requestID, guestID, reservationID string) context.Context {
	reqCtx := &RequestContext{
		RequestID:     requestID,
		GuestID:       guestID,
		ReservationID: reservationID,
		StartTime:     time.Now(),
		Metadata:      make(map[string]interface{}),
	}
	return context.WithValue(ctx, requestContextKey, reqCtx)
}

// GetRequestContext extracts the RequestContext from the context.
// Returns a default empty RequestContext when absent, never nil.
func GetRequestContext(ctx context.Context) *RequestContext {
	if ctx == nil {
		return &RequestContext{
			RequestID: "unknown",
			Metadata:  make(map[string]interface{}),
		}
	}

	if reqCtx, ok := ctx.Value(requestContextKey).(*RequestContext); ok {
		return reqCtx
	}

	return &RequestContext{
		RequestID: "unknown",
		Metadata:  make(map[string]interface{}),
	}
}

// GetRequestID extracts the request id from the context.
func GetRequestID(ctx context.Context) string {
	return GetRequestContext(ctx).RequestID
}

// GetGuestID extracts the guest id from the context.
func GetGuestID(ctx context.Context) string {
	return GetRequestContext(ctx).GuestID
}

// SetMetadata attaches extra tracing metadata to the RequestContext.
func SetMetadata(ctx context.Context, key string, value interface{}) {
	reqCtx := GetRequestContext(ctx)
	if reqCtx.Metadata == nil {
		reqCtx.Metadata = make(map[string]interface{})
	}
	reqCtx.Metadata[key] = value
}

// GetMetadata reads tracing metadata from the RequestContext.
func GetMetadata(ctx context.Context, key string) (interface{}, bool) {
	reqCtx := GetRequestContext(ctx)
	if reqCtx.Metadata == nil {
		return nil, false
	}
	value, ok := reqCtx.Metadata[key]
	return value, ok
}

// GetElapsedTime returns the elapsed request time in milliseconds.
func GetElapsedTime(ctx context.Context) int64 {
	reqCtx := GetRequestContext(ctx)
	if reqCtx.StartTime.IsZero() {
		return 0
	}
	return time.Since(reqCtx.StartTime).Milliseconds()
}
