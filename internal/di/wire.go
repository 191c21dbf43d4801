//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/config"
	applogger "github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/logger"
	"github.com/benitorhuang-svg/tw-stock-app-sub001/pkg/server"
)

// InitializeApp wires up all dependencies and returns the batch application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config, l *applogger.Logger) (*server.App, func(), error) {
	wire.Build(
		// Metrics
		ProvideMetricsRecorder,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideNotifier,

		// Repositories
		ProvideMarketStore,
		ProvideFeatureStore,

		// Phases
		ProvideIndicatorJob,
		ProvideChipJob,
		ProvideBreadthJob,
		ProvideEngine,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil, nil
}
