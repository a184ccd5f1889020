package model

import "time"

// Alert event type constants
const (
	AlertEventBreakerOpened = "BREAKER_OPENED"
	AlertEventBreakerClosed = "BREAKER_CLOSED"
	AlertEventJobExhausted  = "JOB_EXHAUSTED"
	AlertEventHangingOps    = "HANGING_OPERATIONS"
)

// BreakerOpenedEvent represents a circuit breaker tripping open
type BreakerOpenedEvent struct {
	Name        string
	FailureRate float64
	OpenedAt    time.Time
}

// BreakerClosedEvent represents a circuit breaker recovering
type BreakerClosedEvent struct {
	Name       string
	ProbeCount int
	OpenFor    time.Duration
}

// JobExhaustedEvent represents a message job failing terminally
// after exhausting its retries
type JobExhaustedEvent struct {
	JobID     int64
	Recipient string
	Attempts  int
	LastError string
	FailedAt  time.Time
}
