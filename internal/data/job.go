package data

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	pkgerrors "StayBridge/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// JobStatus represents the database ENUM type for message job status.
type JobStatus string

// Job status constants covering the full delivery lifecycle.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// JobPriority represents the database ENUM type for message priority.
// Stored as a small int so "priority desc" ordering works in SQL.
type JobPriority int

const (
	PriorityLow    JobPriority = 0
	PriorityNormal JobPriority = 1
	PriorityHigh   JobPriority = 2
)

// String returns the human-readable priority name.
func (p JobPriority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// ParseJobPriority maps a priority name to its ordering value.
// Unknown names fall back to normal.
func ParseJobPriority(s string) JobPriority {
	switch s {
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// Scan implements sql.Scanner interface for JobStatus.
func (s *JobStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*s = JobStatus(v)
	case string:
		*s = JobStatus(v)
	default:
		return fmt.Errorf("cannot scan type %T into JobStatus", value)
	}
	return nil
}

// Value implements driver.Valuer interface for JobStatus.
func (s JobStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// MessageJob is the GORM model for the message_jobs table.
type MessageJob struct {
	ID          int64       `gorm:"primaryKey;column:id"`
	Recipient   string      `gorm:"column:recipient;size:64;not null;index"`
	Payload     string      `gorm:"column:payload;type:text;not null"`
	Priority    JobPriority `gorm:"column:priority;default:1;not null"`
	Attempt     int         `gorm:"column:attempt;default:0;not null"`
	MaxRetries  int         `gorm:"column:max_retries;default:5;not null"`
	ScheduledAt time.Time   `gorm:"column:scheduled_at;not null;index"`
	Status      JobStatus   `gorm:"column:status;type:enum('pending','processing','completed','failed');default:'pending';not null;index"`
	LastError   *string     `gorm:"column:last_error;type:text"`
	CompletedAt *time.Time  `gorm:"column:completed_at"`
	DeliveryID  *string     `gorm:"column:delivery_id;size:128"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (MessageJob) TableName() string {
	return "message_jobs"
}

// JobStore implements biz.JobRepo on MySQL via GORM.
// Jobs are only ever mutated through status transitions; nothing deletes a
// job mid-flight.
type JobStore struct {
	db     *gorm.DB
	logger *log.Helper
}

// NewJobStore creates a new message job store.
func NewJobStore(db *gorm.DB, logger log.Logger) *JobStore {
	return &JobStore{
		db:     db,
		logger: log.NewHelper(logger),
	}
}

// CreateJob inserts a new pending job.
func (s *JobStore) CreateJob(ctx context.Context, job *MessageJob) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)

		switch dbErr.Type {
		case pkgerrors.ErrorTypeConnection:
			s.logger.Errorw("database connection error", "error", dbErr.Error())
		case pkgerrors.ErrorTypeDataTooLong:
			s.logger.Errorw("message payload too long",
				"recipient", job.Recipient,
				"error", dbErr.Error())
		default:
			s.logger.Errorw("failed to create message job",
				"recipient", job.Recipient,
				"error", dbErr.Error())
		}

		return dbErr
	}

	s.logger.Debugw("message job created",
		"job_id", job.ID,
		"recipient", job.Recipient,
		"priority", job.Priority.String(),
		"scheduled_at", job.ScheduledAt)
	return nil
}

// GetJob retrieves a job by id.
func (s *JobStore) GetJob(ctx context.Context, id int64) (*MessageJob, error) {
	var job MessageJob
	if err := s.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, pkgerrors.ClassifyDBError(err)
	}
	return &job, nil
}

// ListDue selects up to limit pending jobs whose scheduled time has passed,
// highest priority first, FIFO within a priority tier.
func (s *JobStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*MessageJob, error) {
	var jobs []*MessageJob
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", JobStatusPending, now).
		Order("priority DESC, created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due jobs: %w", pkgerrors.ClassifyDBError(err))
	}
	return jobs, nil
}

// MarkProcessing transitions a pending job to processing. Returns
// gorm.ErrRecordNotFound via classification if another dispatcher claimed
// the job first.
func (s *JobStore) MarkProcessing(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).
		Model(&MessageJob{}).
		Where("id = ? AND status = ?", id, JobStatusPending).
		Update("status", JobStatusProcessing)
	if res.Error != nil {
		return pkgerrors.ClassifyDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ClassifyDBError(gorm.ErrRecordNotFound)
	}
	return nil
}

// MarkCompleted transitions a processing job to completed, recording the
// gateway delivery id.
func (s *JobStore) MarkCompleted(ctx context.Context, id int64, deliveryID string, completedAt time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&MessageJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       JobStatusCompleted,
			"delivery_id":  deliveryID,
			"completed_at": completedAt,
		}).Error
	if err != nil {
		return pkgerrors.ClassifyDBError(err)
	}
	return nil
}

// Reschedule returns a job to pending with a new scheduled time. When
// countAttempt is true the attempt counter is incremented and the error
// recorded; a rate-limit deferral passes false so deferrals cost nothing.
func (s *JobStore) Reschedule(ctx context.Context, id int64, scheduledAt time.Time, countAttempt bool, lastError string) error {
	updates := map[string]interface{}{
		"status":       JobStatusPending,
		"scheduled_at": scheduledAt,
	}
	if countAttempt {
		updates["attempt"] = gorm.Expr("attempt + 1")
		updates["last_error"] = lastError
	}

	err := s.db.WithContext(ctx).
		Model(&MessageJob{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return pkgerrors.ClassifyDBError(err)
	}
	return nil
}

// MarkFailed transitions a job to its terminal failed state after its
// retries are exhausted. Failed jobs are retained for audit.
func (s *JobStore) MarkFailed(ctx context.Context, id int64, lastError string) error {
	err := s.db.WithContext(ctx).
		Model(&MessageJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     JobStatusFailed,
			"attempt":    gorm.Expr("attempt + 1"),
			"last_error": lastError,
		}).Error
	if err != nil {
		return pkgerrors.ClassifyDBError(err)
	}
	return nil
}

// PurgeCompleted deletes completed jobs finished before the cutoff.
// Failed jobs are never purged here.
func (s *JobStore) PurgeCompleted(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status = ? AND completed_at < ?", JobStatusCompleted, before).
		Delete(&MessageJob{})
	if res.Error != nil {
		return 0, pkgerrors.ClassifyDBError(res.Error)
	}

	if res.RowsAffected > 0 {
		s.logger.Infow("purged completed message jobs",
			"count", res.RowsAffected,
			"before", before)
	}
	return res.RowsAffected, nil
}

// CountByStatus returns the number of jobs per status for the ops surface.
func (s *JobStore) CountByStatus(ctx context.Context) (map[JobStatus]int64, error) {
	type row struct {
		Status JobStatus
		Count  int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&MessageJob{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", pkgerrors.ClassifyDBError(err))
	}

	counts := make(map[JobStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
