// Package biz contains business logic layer implementations.
// This layer holds the core business rules and domain models.
package biz

import (
	"StayBridge/internal/data"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewBreakerRegistry,
	NewMonitor,
	NewResponseCache,
	NewPMSUsecase,
	NewMessageQueueUsecase,
	// Import data layer providers
	data.NewJobStore,
	data.NewRateLimitStore,
	data.NewPMSClient,
	data.NewGatewayClient,
	data.NewLogAlertNotifier,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(JobRepo), new(*data.JobStore)),
	wire.Bind(new(RateLimitRepo), new(*data.RateLimitStore)),
	wire.Bind(new(PMSRepo), new(*data.PMSClient)),
	wire.Bind(new(MessageSender), new(*data.GatewayClient)),
	wire.Bind(new(AlertNotifier), new(*data.LogAlertNotifier)),
)
