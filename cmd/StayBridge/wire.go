//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"StayBridge/internal/biz"
	"StayBridge/internal/conf"
	"StayBridge/internal/data"
	"StayBridge/internal/server"
	"StayBridge/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.PMS, *conf.Gateway, *conf.Queue, *conf.Breaker, *conf.Cache, *conf.Monitor, log.Logger) (*application, func(), error) {
	panic(wire.Build(
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		server.ProviderSet,
		newApp,
		newApplication,
	))
}
