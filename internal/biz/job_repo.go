package biz

import (
	"context"
	"time"

	"StayBridge/internal/data"
)

// JobRepo defines the message job store interface.
// Following Kratos v2 DDD architecture, interfaces are defined in biz layer.
// Implementation is in data layer (data.JobStore).
type JobRepo interface {
	CreateJob(ctx context.Context, job *data.MessageJob) error
	GetJob(ctx context.Context, id int64) (*data.MessageJob, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*data.MessageJob, error)
	MarkProcessing(ctx context.Context, id int64) error
	MarkCompleted(ctx context.Context, id int64, deliveryID string, completedAt time.Time) error
	Reschedule(ctx context.Context, id int64, scheduledAt time.Time, countAttempt bool, lastError string) error
	MarkFailed(ctx context.Context, id int64, lastError string) error
	PurgeCompleted(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[data.JobStatus]int64, error)
}
