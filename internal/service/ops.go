// Package service exposes the HTTP surface of StayBridge: the message
// enqueue API and the operational endpoints.
package service

import (
	nethttp "net/http"

	"StayBridge/internal/biz"
	"StayBridge/pkg/monitor"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// OpsService exposes health and operational state: breaker snapshots,
// queue depth, cache counters and the operation monitor.
type OpsService struct {
	pms    *biz.PMSUsecase
	queue  *biz.MessageQueueUsecase
	mon    *monitor.Monitor
	logger *log.Helper
}

// NewOpsService creates a new OpsService instance.
func NewOpsService(pms *biz.PMSUsecase, queue *biz.MessageQueueUsecase, mon *monitor.Monitor, logger log.Logger) *OpsService {
	return &OpsService{
		pms:    pms,
		queue:  queue,
		mon:    mon,
		logger: log.NewHelper(logger),
	}
}

// RegisterRoutes attaches the ops routes to the HTTP server.
func (s *OpsService) RegisterRoutes(srv *http.Server) {
	r := srv.Route("/")
	r.GET("/healthz", s.Healthz)
	r.GET("/ops/breakers", s.Breakers)
	r.POST("/ops/breakers/{name}/reset", s.ResetBreaker)
	r.GET("/ops/queue/stats", s.QueueStats)
	r.GET("/ops/cache", s.CacheStats)
	r.GET("/ops/operations", s.Operations)
}

// Healthz probes the upstream PMS and reports the result envelope.
// Returns 503 when the probe fails so load balancers can act on it.
func (s *OpsService) Healthz(ctx http.Context) error {
	res := s.pms.HealthCheck(ctx)
	code := nethttp.StatusOK
	if !res.Success {
		code = nethttp.StatusServiceUnavailable
	}
	return ctx.JSON(code, res)
}

// Breakers returns the state and metrics of every circuit breaker.
func (s *OpsService) Breakers(ctx http.Context) error {
	return ctx.JSON(nethttp.StatusOK, s.pms.BreakerStatuses())
}

// ResetBreaker forces the named breaker back to closed.
func (s *OpsService) ResetBreaker(ctx http.Context) error {
	name := ctx.Vars().Get("name")
	if !s.pms.ResetBreaker(name) {
		return ctx.JSON(nethttp.StatusNotFound, map[string]string{
			"error": "unknown breaker: " + name,
		})
	}
	s.logger.Infow("msg", "breaker reset via ops api", "breaker", name)
	return ctx.JSON(nethttp.StatusOK, map[string]string{
		"breaker": name,
		"state":   "closed",
	})
}

// QueueStats returns the message queue depth by status.
func (s *OpsService) QueueStats(ctx http.Context) error {
	stats, err := s.queue.Stats(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(nethttp.StatusOK, stats)
}

// CacheStats returns the PMS response cache counters.
func (s *OpsService) CacheStats(ctx http.Context) error {
	return ctx.JSON(nethttp.StatusOK, s.pms.CacheStats())
}

// operationsReply is the monitor snapshot for the ops surface.
type operationsReply struct {
	Health monitor.Health      `json:"health"`
	Active []monitor.Operation `json:"active,omitempty"`
}

// Operations returns the operation monitor health and the in-flight set.
func (s *OpsService) Operations(ctx http.Context) error {
	return ctx.JSON(nethttp.StatusOK, operationsReply{
		Health: s.mon.Health(),
		Active: s.mon.HangingOperations(0),
	})
}
