//go:build wireinject
// +build wireinject

package di

import (
	"AlphaFusion/pkg/config"
	"AlphaFusion/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideCache,
		ProvideLatestCache,

		// Repositories
		ProvideSmoothingStore,
		ProvideRangeFetcher,
		ProvideResultStorage,
		ProvideResultPublisher,

		// Analysis services
		ProvideMarketSession,
		ProvideHistoryLoader,
		ProvideScorer,
		ProvideUniverse,

		// Use cases
		ProvideSmoother,
		ProvideAnalyzer,
		ProvideIndexAnalyzer,
		ProvideResultSink,
		ProvideResultPipeline,
		ProvideLatestResults,
		ProvidePoller,
		ProvideRequestHandler,

		// Transport
		ProvideHub,
		ProvideRateLimiter,
		ProvideHealthChecks,
		ProvideHTTPServer,

		// Application server
		ProvideClosers,
		ProvideApp,
	)
	return &server.App{}, nil
}
