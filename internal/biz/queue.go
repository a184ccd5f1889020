package biz

import (
	"context"
	"time"

	"StayBridge/internal/conf"
	"StayBridge/internal/data"
	"StayBridge/internal/model"
	"StayBridge/pkg/breaker"
	xlog "StayBridge/pkg/log"
	"StayBridge/pkg/monitor"

	"github.com/go-kratos/kratos/v2/log"
)

// brkGatewaySend guards every outbound gateway delivery. An open breaker
// here is retried like any other gateway error; the breaker's recovery
// timeout and the queue's backoff deliberately compose.
const brkGatewaySend = "gateway.send"

// QueueStats is the queue snapshot returned to the ops surface.
type QueueStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// MessageQueueUsecase implements the rate-limited, retrying outbound
// message queue. Enqueue never fails on rate limiting; it defers. Delivery
// happens on DispatchTick, driven by cron.
type MessageQueueUsecase struct {
	jobs       JobRepo
	window     RateLimitRepo
	sender     MessageSender
	notifier   AlertNotifier
	breakers   *breaker.Registry
	mon        *monitor.Monitor
	rateLimit  int
	batchSize  int
	maxRetries int
	retention  time.Duration
	logger     *xlog.LogHelper
}

// NewMessageQueueUsecase creates a new message queue usecase.
func NewMessageQueueUsecase(c *conf.Queue, jobs JobRepo, window RateLimitRepo, sender MessageSender, notifier AlertNotifier, breakers *breaker.Registry, mon *monitor.Monitor, logger log.Logger) *MessageQueueUsecase {
	uc := &MessageQueueUsecase{
		jobs:       jobs,
		window:     window,
		sender:     sender,
		notifier:   notifier,
		breakers:   breakers,
		mon:        mon,
		rateLimit:  10,
		batchSize:  10,
		maxRetries: 5,
		retention:  7 * 24 * time.Hour,
		logger:     xlog.NewLogHelper(logger),
	}
	if c != nil {
		if c.RateLimit > 0 {
			uc.rateLimit = c.RateLimit
		}
		if c.BatchSize > 0 {
			uc.batchSize = c.BatchSize
		}
		if c.MaxRetries > 0 {
			uc.maxRetries = c.MaxRetries
		}
		if c.Retention > 0 {
			uc.retention = c.Retention
		}
	}
	return uc
}

// Enqueue persists an outbound message job and returns its id. When the
// recipient's rate window is already full the job is scheduled at the
// window end instead of failing; the caller never sees a rate-limit error.
func (uc *MessageQueueUsecase) Enqueue(ctx context.Context, recipient, payload string, priority data.JobPriority, scheduledAt ...time.Time) (int64, error) {
	now := time.Now()
	schedule := now
	if len(scheduledAt) > 0 && scheduledAt[0].After(now) {
		schedule = scheduledAt[0]
	}

	count, err := uc.window.Count(ctx, recipient)
	if err == nil && count >= uc.rateLimit {
		next, nextErr := uc.window.NextSlot(ctx, recipient, now)
		if nextErr == nil && next.After(schedule) {
			uc.logger.RateLimit("enqueue deferred to next window",
				"recipient", recipient,
				"window_count", count,
				"scheduled_at", next)
			schedule = next
		}
	}

	job := &data.MessageJob{
		Recipient:   recipient,
		Payload:     payload,
		Priority:    priority,
		MaxRetries:  uc.maxRetries,
		ScheduledAt: schedule,
		Status:      data.JobStatusPending,
	}
	if err := uc.jobs.CreateJob(ctx, job); err != nil {
		return 0, err
	}

	uc.logger.Queue("message enqueued",
		"job_id", job.ID,
		"recipient", recipient,
		"priority", priority.String(),
		"scheduled_at", schedule)
	return job.ID, nil
}

// DispatchTick runs one dispatch cycle: select due pending jobs, highest
// priority first and FIFO within a tier, and attempt delivery for each.
func (uc *MessageQueueUsecase) DispatchTick(ctx context.Context) error {
	opID := uc.mon.StartOperation("queue", "dispatch_tick", nil)
	now := time.Now()

	due, err := uc.jobs.ListDue(ctx, now, uc.batchSize)
	if err != nil {
		uc.mon.EndOperation(opID, false, err)
		return err
	}
	if len(due) == 0 {
		uc.mon.EndOperation(opID, true, nil)
		return nil
	}

	var sent, deferred, failed int
	for _, job := range due {
		switch uc.dispatchJob(ctx, job, now) {
		case dispatchSent:
			sent++
		case dispatchDeferred:
			deferred++
		case dispatchFailed:
			failed++
		}
	}

	uc.logger.DispatchSummary(sent, deferred, failed, "batch", len(due))
	uc.mon.EndOperation(opID, true, nil,
		"sent", sent, "deferred", deferred, "failed", failed)
	return nil
}

type dispatchOutcome int

const (
	dispatchSkipped dispatchOutcome = iota
	dispatchSent
	dispatchDeferred
	dispatchFailed
)

// dispatchJob attempts delivery of a single due job.
func (uc *MessageQueueUsecase) dispatchJob(ctx context.Context, job *data.MessageJob, now time.Time) dispatchOutcome {
	if err := uc.jobs.MarkProcessing(ctx, job.ID); err != nil {
		// Another dispatcher claimed it, or it left pending since the query.
		uc.logger.Dispatch("job no longer pending, skipping", "job_id", job.ID)
		return dispatchSkipped
	}

	// Second rate-limit check: capacity may have been consumed since
	// enqueue. A deferral costs no attempt.
	count, err := uc.window.Count(ctx, job.Recipient)
	if err == nil && count >= uc.rateLimit {
		next, nextErr := uc.window.NextSlot(ctx, job.Recipient, now)
		if nextErr != nil || !next.After(now) {
			next = now.Add(uc.window.Window())
		}
		if err := uc.jobs.Reschedule(ctx, job.ID, next, false, ""); err != nil {
			uc.logger.Errorw("failed to defer rate-limited job", "job_id", job.ID, "error", err)
			return dispatchFailed
		}
		uc.logger.RateLimit("dispatch deferred to next window",
			"job_id", job.ID,
			"recipient", job.Recipient,
			"window_count", count,
			"scheduled_at", next)
		return dispatchDeferred
	}

	b := uc.breakers.GetOrCreate(brkGatewaySend)
	deliveryID, sendErr := breaker.Run(ctx, b, func(ctx context.Context) (string, error) {
		return uc.sender.Send(ctx, job.Recipient, job.Payload)
	})
	if sendErr != nil {
		return uc.handleSendFailure(ctx, job, now, sendErr)
	}

	if err := uc.window.Increment(ctx, job.Recipient, now); err != nil {
		uc.logger.Warnw("failed to record delivery in rate window",
			"recipient", job.Recipient, "error", err)
	}
	if err := uc.jobs.MarkCompleted(ctx, job.ID, deliveryID, time.Now()); err != nil {
		uc.logger.Errorw("failed to mark job completed", "job_id", job.ID, "error", err)
		return dispatchFailed
	}

	uc.logger.Success("message delivered",
		"job_id", job.ID,
		"recipient", job.Recipient,
		"delivery_id", deliveryID,
		"attempt", job.Attempt+1)
	return dispatchSent
}

// handleSendFailure applies the retry policy after a gateway error. Open
// breaker rejections take the same path as upstream failures.
func (uc *MessageQueueUsecase) handleSendFailure(ctx context.Context, job *data.MessageJob, now time.Time, sendErr error) dispatchOutcome {
	newAttempt := job.Attempt + 1
	if newAttempt >= job.MaxRetries {
		if err := uc.jobs.MarkFailed(ctx, job.ID, sendErr.Error()); err != nil {
			uc.logger.Errorw("failed to mark job failed", "job_id", job.ID, "error", err)
			return dispatchFailed
		}
		uc.logger.Errorw("message job exhausted retries",
			"job_id", job.ID,
			"recipient", job.Recipient,
			"attempts", newAttempt,
			"error", sendErr.Error())
		_ = uc.notifier.NotifyJobExhausted(ctx, &model.JobExhaustedEvent{
			JobID:     job.ID,
			Recipient: job.Recipient,
			Attempts:  newAttempt,
			LastError: sendErr.Error(),
			FailedAt:  now,
		})
		return dispatchFailed
	}

	delay := time.Duration(1<<uint(newAttempt)) * time.Second
	next := now.Add(delay)
	if err := uc.jobs.Reschedule(ctx, job.ID, next, true, sendErr.Error()); err != nil {
		uc.logger.Errorw("failed to reschedule job", "job_id", job.ID, "error", err)
		return dispatchFailed
	}

	uc.logger.Queue("delivery failed, retry scheduled",
		"job_id", job.ID,
		"recipient", job.Recipient,
		"attempt", newAttempt,
		"backoff", delay.String(),
		"scheduled_at", next,
		"error", sendErr.Error())
	return dispatchFailed
}

// PurgeCompleted deletes completed jobs older than the retention window.
// Failed jobs are kept for audit.
func (uc *MessageQueueUsecase) PurgeCompleted(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-uc.retention)
	purged, err := uc.jobs.PurgeCompleted(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		uc.logger.Housekeeping("completed jobs purged",
			"count", purged,
			"older_than", cutoff)
	}
	return purged, nil
}

// Stats returns queue depth by status for the ops surface.
func (uc *MessageQueueUsecase) Stats(ctx context.Context) (*QueueStats, error) {
	counts, err := uc.jobs.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &QueueStats{
		Pending:    counts[data.JobStatusPending],
		Processing: counts[data.JobStatusProcessing],
		Completed:  counts[data.JobStatusCompleted],
		Failed:     counts[data.JobStatusFailed],
	}, nil
}
