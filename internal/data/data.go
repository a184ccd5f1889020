// Package data provides data access layer implementations.
// It holds the job store, the rate-limit window store, and the HTTP
// clients for the upstream PMS and messaging gateway.
package data

import (
	"StayBridge/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedisClient,
	NewMySQLClient,
)

// Data contains shared data layer dependencies.
type Data struct {
	// redisClient backs the rate-limit window store
	redisClient *redis.Client
}

// NewData creates a new Data instance.
// Redis connection failure does not prevent application startup; the
// rate-limit store degrades open without it.
func NewData(_ *conf.Data, logger log.Logger, rdb *redis.Client) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	if rdb == nil {
		helper.Warn("Redis client is nil, rate limiting will degrade open")
	}

	d := &Data{
		redisClient: rdb,
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		// Redis and MySQL cleanup run via their own wire cleanup funcs
	}

	return d, cleanup, nil
}

// GetRedisClient returns the Redis client for advanced operations.
func (d *Data) GetRedisClient() *redis.Client {
	return d.redisClient
}
