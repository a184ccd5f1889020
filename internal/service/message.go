package service

import (
	nethttp "net/http"
	"time"

	"StayBridge/internal/biz"
	"StayBridge/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// MessageService exposes the outbound message enqueue API. Delivery is
// asynchronous; the caller gets a job id back, never a rate-limit error.
type MessageService struct {
	queue  *biz.MessageQueueUsecase
	logger *log.Helper
}

// NewMessageService creates a new MessageService instance.
func NewMessageService(queue *biz.MessageQueueUsecase, logger log.Logger) *MessageService {
	return &MessageService{
		queue:  queue,
		logger: log.NewHelper(logger),
	}
}

// RegisterRoutes attaches the message routes to the HTTP server.
func (s *MessageService) RegisterRoutes(srv *http.Server) {
	r := srv.Route("/")
	r.POST("/v1/messages", s.Enqueue)
}

type enqueueRequest struct {
	Recipient   string     `json:"recipient"`
	Payload     string     `json:"payload"`
	Priority    string     `json:"priority,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type enqueueReply struct {
	JobID  int64  `json:"job_id"`
	Status string `json:"status"`
}

// Enqueue accepts an outbound message and queues it for dispatch.
func (s *MessageService) Enqueue(ctx http.Context) error {
	var req enqueueRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if req.Recipient == "" || req.Payload == "" {
		return ctx.JSON(nethttp.StatusBadRequest, map[string]string{
			"error": "recipient and payload are required",
		})
	}

	priority := data.ParseJobPriority(req.Priority)

	var (
		id  int64
		err error
	)
	if req.ScheduledAt != nil {
		id, err = s.queue.Enqueue(ctx, req.Recipient, req.Payload, priority, *req.ScheduledAt)
	} else {
		id, err = s.queue.Enqueue(ctx, req.Recipient, req.Payload, priority)
	}
	if err != nil {
		return err
	}

	return ctx.JSON(nethttp.StatusAccepted, enqueueReply{
		JobID:  id,
		Status: "queued",
	})
}
