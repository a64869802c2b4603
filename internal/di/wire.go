//go:build wireinject
// +build wireinject

package di

import (
	"RangePulse/pkg/config"
	"RangePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideSignalPublisher,

		// Repositories
		ProvideCandleStore,
		ProvideSignalStore,

		// Use cases
		ProvideScanUseCase,
		ProvideBacktestUseCase,
		ProvideCandlesUseCase,
		ProvideScanner,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
