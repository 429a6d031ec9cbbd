//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"TradeSim/pkg/config"
	"TradeSim/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvidePriceHistory,
		ProvidePolicyStore,
		ProvideReportPublisher,
		ProvideReportCache,
		ProvideLocker,

		// Use cases
		ProvideSimulator,

		// Transport
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}
