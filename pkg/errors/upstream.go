// Package errors classifies the failures StayBridge sees at its two
// boundaries: upstream HTTP dependencies (PMS, messaging gateway) and the
// persistent job store.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError is a non-2xx response or transport failure from a real
// dependency call. Retryable mirrors the classic retryable set: request
// timeout, too many requests, and every 5xx.
type UpstreamError struct {
	Service    string
	Operation  string
	StatusCode int
	Retryable  bool
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: upstream status %d: %v", e.Service, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamStatusError builds an UpstreamError from an HTTP status code,
// deriving the retryable flag from the status.
func NewUpstreamStatusError(service, operation string, status int, err error) *UpstreamError {
	return &UpstreamError{
		Service:    service,
		Operation:  operation,
		StatusCode: status,
		Retryable:  IsRetryableStatus(status),
		Err:        err,
	}
}

// NewUpstreamTransportError builds an UpstreamError for a failure below the
// HTTP layer (dial, TLS, body read). Transport failures are retryable.
func NewUpstreamTransportError(service, operation string, err error) *UpstreamError {
	return &UpstreamError{
		Service:   service,
		Operation: operation,
		Retryable: true,
		Err:       err,
	}
}

// IsRetryableStatus reports whether an HTTP status is worth retrying:
// 408 Request Timeout, 429 Too Many Requests, and any 5xx.
func IsRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return status >= 500 && status <= 599
}

// IsRetryable reports whether err should be retried. An UpstreamError
// carries its own flag; anything else (including breaker timeouts and
// open-circuit rejections, which the queue retries like upstream failures)
// defaults to retryable when non-nil.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable
	}
	return true
}
