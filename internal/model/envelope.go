package model

import (
	"time"

	brkerrors "StayBridge/pkg/errors"
)

// Result is the uniform envelope every integration-layer call returns.
// Ordinary upstream failures (HTTP errors, timeouts, open-breaker
// rejections) are captured in Err, never raised past this boundary.
type Result[T any] struct {
	Success      bool          `json:"success"`
	Data         T             `json:"data,omitempty"`
	Err          *ResultError  `json:"error,omitempty"`
	Cached       bool          `json:"cached"`
	ResponseTime time.Duration `json:"response_time"`
	BreakerState string        `json:"circuit_breaker_state"`
}

// ResultError is the serializable error surface of an envelope.
type ResultError struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// NewResultError builds a ResultError from any error, deriving the
// retryable flag from the upstream error taxonomy.
func NewResultError(err error) *ResultError {
	if err == nil {
		return nil
	}
	return &ResultError{
		Message:   err.Error(),
		Retryable: brkerrors.IsRetryable(err),
	}
}
