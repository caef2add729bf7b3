package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"AlphaFusion/internal/domain/models"
	"AlphaFusion/internal/domain/repository"
	domsvc "AlphaFusion/internal/domain/service"
	"AlphaFusion/internal/handler/api"
	"AlphaFusion/internal/handler/ws"
	mid "AlphaFusion/internal/middleware"
	internalrepo "AlphaFusion/internal/repository"
	"AlphaFusion/internal/service/ratelimit"
	"AlphaFusion/internal/services/engine"
	"AlphaFusion/internal/services/features"
	"AlphaFusion/internal/services/marketdata"
	"AlphaFusion/internal/services/scoring"
	"AlphaFusion/internal/services/signals"
	"AlphaFusion/internal/services/universe"
	"AlphaFusion/internal/usecase"
	"AlphaFusion/pkg/cache"
	pkgch "AlphaFusion/pkg/clickhouse"
	"AlphaFusion/pkg/config"
	xhttp "AlphaFusion/pkg/http"
	pkgkafka "AlphaFusion/pkg/kafka"
	applogger "AlphaFusion/pkg/logger"
	"AlphaFusion/pkg/metrics"
	"AlphaFusion/pkg/server"
	"AlphaFusion/pkg/util"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		Compress:   cfg.Logger.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and the tables this
// configuration needs. It returns nil when nothing uses ClickHouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.UsesClickHouse() {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	var schema []string
	if cfg.MarketData.Backend == "clickhouse" {
		schema = append(schema, internalrepo.CandlesSchema(cfg.ClickHouse.Database, cfg.ClickHouse.CandlesTable)...)
	}
	if cfg.StoresResults() {
		schema = append(schema, internalrepo.ResultsSchema(cfg.ClickHouse.Database, cfg.ClickHouse.ResultsTable)...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, schema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is unused.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.UsesKafka() {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the analysis request consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisCache connects to Redis, or returns nil when Redis is disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.PoolSize/2, cfg.Redis.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideCache returns the shared cache: layered over Redis when available,
// in-process otherwise.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	if rc != nil {
		return cache.NewLayeredCache(rc,
			cache.WithLayeredMemorySize(cfg.HTTPCache.MaxSize),
			cache.WithLayeredMemoryTTL(cfg.HTTPCache.TTL),
		)
	}
	return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.HTTPCache.MaxSize))
}

// ProvideSmoothingStore keeps smoothing state in memory or Redis.
func ProvideSmoothingStore(cfg *config.Config, rc *cache.RedisCache) (repository.SmoothingStore, error) {
	switch cfg.Smoothing.Backend {
	case "redis":
		if rc == nil {
			return nil, fmt.Errorf("smoothing backend redis without a redis connection")
		}
		return internalrepo.NewCacheSmoothingStore(rc, cfg.Smoothing.KeyPrefix, cfg.Smoothing.TTL), nil
	default:
		return internalrepo.NewMemorySmoothingStore(), nil
	}
}

// ProvideMarketSession builds the exchange session calendar.
func ProvideMarketSession(cfg *config.Config) (*util.MarketSession, error) {
	return util.NewMarketSession(cfg.Market.Timezone, cfg.Market.Open, cfg.Market.Close, cfg.Market.Holidays)
}

// ProvideRangeFetcher selects the candle source.
func ProvideRangeFetcher(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.RangeFetcher, error) {
	switch cfg.MarketData.Backend {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("marketdata backend clickhouse without a clickhouse connection")
		}
		src := internalrepo.NewCHCandleSource(ch, cfg.ClickHouse.CandlesTable)
		src.SetLogger(l)
		return src, nil
	default:
		return marketdata.NewYahooClient(
			marketdata.WithBaseURL(cfg.MarketData.BaseURL),
			marketdata.WithUserAgent(cfg.MarketData.UserAgent),
			marketdata.WithTimeout(cfg.MarketData.Timeout),
			marketdata.WithRetries(cfg.MarketData.Retries),
			marketdata.WithLogger(l),
		), nil
	}
}

// ProvideHistoryLoader creates the session-aware candle loader.
func ProvideHistoryLoader(cfg *config.Config, fetcher repository.RangeFetcher, session *util.MarketSession, l *applogger.Logger) domsvc.HistoryLoader {
	return marketdata.NewHistoryLoader(fetcher, session,
		marketdata.WithLoaderConfig(marketdata.LoaderConfig{
			LiveInterval:    repository.NormalizeTimeframe(cfg.MarketData.LiveInterval),
			LiveRange:       cfg.MarketData.LiveRange,
			HistoryInterval: repository.NormalizeTimeframe(cfg.MarketData.HistoryInterval),
			HistoryRange:    cfg.MarketData.HistoryRange,
			MaxBars:         cfg.MarketData.HistoryBars,
			MinBars:         cfg.MarketData.MinBars,
		}),
		marketdata.WithLoaderLogger(l),
	)
}

// ProvideScorer builds the scoring engine from the scoring section.
func ProvideScorer(cfg *config.Config, l *applogger.Logger) (domsvc.Scorer, error) {
	weights := scoring.DefaultWeights()
	if len(cfg.Scoring.Weights) > 0 {
		w, err := scoring.NormalizeWeights(models.WeightVector(cfg.Scoring.Weights))
		if err != nil {
			return nil, fmt.Errorf("scoring weights: %w", err)
		}
		weights = w
	}
	return engine.New(
		engine.WithWeights(weights),
		engine.WithNormalizer(features.NewNormalizer(
			features.WithTrendThreshold(cfg.Scoring.TrendThreshold),
			features.WithVolumeSpikeZ(cfg.Scoring.VolumeSpikeZ),
			features.WithLogger(l),
		)),
		engine.WithAdaptParams(scoring.AdaptParams{
			TrendCutoff:    cfg.Scoring.TrendCutoff,
			TrendBoost:     cfg.Scoring.TrendBoost,
			BollDamp:       cfg.Scoring.BollDamp,
			BollFloor:      cfg.Scoring.BollFloor,
			RangeBollBoost: cfg.Scoring.RangeBollBoost,
			RangeRSIBoost:  cfg.Scoring.RangeRSIBoost,
		}),
		engine.WithDecisionParams(signals.Params{
			ExitBelow:       30,
			TightenBelow:    45,
			HoldBelow:       60,
			AnomalyZ:        cfg.Scoring.AnomalyZ,
			ConfidenceFloor: cfg.Scoring.ConfidenceGate,
		}),
	), nil
}

// ProvideUniverse returns the built-in index lists.
func ProvideUniverse() *universe.Universe {
	return universe.Default()
}

// ProvideSmoother creates the cross-cycle EWMA smoother.
func ProvideSmoother(cfg *config.Config, store repository.SmoothingStore) *usecase.Smoother {
	return usecase.NewSmoother(store, cfg.Scoring.EWMAAlpha)
}

// ProvideAnalyzer creates the per-instrument analysis orchestrator.
func ProvideAnalyzer(loader domsvc.HistoryLoader, scorer domsvc.Scorer, smoother *usecase.Smoother, m repository.Metrics, l *applogger.Logger) *usecase.Analyzer {
	a := usecase.NewAnalyzer(loader, scorer, smoother, m)
	a.SetLogger(l)
	return a
}

// ProvideIndexAnalyzer creates the index fan-out.
func ProvideIndexAnalyzer(cfg *config.Config, a *usecase.Analyzer, u *universe.Universe, l *applogger.Logger) *usecase.IndexAnalyzer {
	ia := usecase.NewIndexAnalyzer(a, u, cfg.Poller.Concurrency)
	ia.SetLogger(l)
	return ia
}

// ProvideResultStorage creates ClickHouse result storage when results are stored.
func ProvideResultStorage(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) repository.Storage {
	if ch == nil || !cfg.StoresResults() {
		return nil
	}
	s := internalrepo.NewClickHouseStorage(ch.DB(), ch.Database(), cfg.ClickHouse.ResultsTable)
	s.SetLogger(l)
	return s
}

// ProvideResultPublisher creates the Kafka results publisher when a producer exists.
func ProvideResultPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ResultsTopic)
}

// ProvideResultSink routes results per backend.type.
func ProvideResultSink(cfg *config.Config, pub repository.Publisher, store repository.Storage, m repository.Metrics) *usecase.ResultSink {
	return usecase.NewResultSink(pub, store, m, cfg.Backend.Type)
}

// ProvideResultPipeline batches results into the sink, or nil when nothing consumes them.
func ProvideResultPipeline(cfg *config.Config, sink *usecase.ResultSink, m repository.Metrics, l *applogger.Logger) *mid.ResultPipeline {
	if cfg.Backend.Type == usecase.BackendNone {
		return nil
	}
	return mid.NewResultPipeline(sink, m,
		mid.WithBatch(cfg.Backend.BatchSize, cfg.Backend.BatchTimeout),
		mid.WithBufferSize(cfg.Backend.BufferSize),
		mid.WithRetry(cfg.Backend.MaxRetries, cfg.Backend.BackoffMin, cfg.Backend.BackoffMax),
		mid.WithMinInterval(cfg.Backend.MinInterval),
		mid.WithPipelineLogger(l),
	)
}

// LatestCache stores the latest poll results. It is kept apart from the HTTP
// response cache so response churn cannot evict them.
type LatestCache cache.Service

// ProvideLatestCache uses Redis when available and a dedicated in-process
// cache otherwise.
func ProvideLatestCache(cfg *config.Config, rc *cache.RedisCache) LatestCache {
	if rc != nil {
		return rc
	}
	return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Poller.LatestMaxSize))
}

// ProvideLatestResults keeps the last poll result per symbol.
func ProvideLatestResults(cfg *config.Config, c LatestCache, l *applogger.Logger) *usecase.LatestResults {
	// Results older than a few cycles are stale.
	lr := usecase.NewLatestResults(c, 10*cfg.Poller.Interval)
	lr.SetLogger(l)
	return lr
}

// ProvideHub creates the websocket hub, or nil when disabled.
func ProvideHub(cfg *config.Config, l *applogger.Logger) *ws.Hub {
	if !cfg.WebSocket.Enabled {
		return nil
	}
	return ws.NewHub(ws.Config{
		SendBuffer:   cfg.WebSocket.SendBuffer,
		WriteTimeout: cfg.WebSocket.WriteTimeout,
		PingInterval: cfg.WebSocket.PingInterval,
		PongTimeout:  cfg.WebSocket.PongTimeout,
	}, l)
}

// ProvidePoller creates the poll loop over the configured universe, or nil when disabled.
func ProvidePoller(
	cfg *config.Config,
	a *usecase.Analyzer,
	u *universe.Universe,
	m repository.Metrics,
	pipe *mid.ResultPipeline,
	hub *ws.Hub,
	latest *usecase.LatestResults,
	l *applogger.Logger,
) (*usecase.Poller, error) {
	if !cfg.Poller.Enabled {
		return nil, nil
	}
	indices := cfg.Poller.Indices
	if len(indices) == 0 && len(cfg.Poller.Symbols) == 0 {
		indices = []string{universe.Nifty50}
	}
	symbols, err := usecase.ResolveSymbols(u, indices, cfg.Poller.Symbols)
	if err != nil {
		return nil, fmt.Errorf("poller symbols: %w", err)
	}

	subs := []usecase.ResultSubscriber{latest}
	if pipe != nil {
		subs = append(subs, pipe)
	}
	if hub != nil {
		subs = append(subs, hub)
	}
	p := usecase.NewPoller(a, symbols, usecase.PollerConfig{
		Interval:    cfg.Poller.Interval,
		Concurrency: cfg.Poller.Concurrency,
		Timeout:     cfg.Poller.Timeout,
	}, m, subs...)
	p.SetLogger(l)
	return p, nil
}

// ProvideRequestHandler answers Kafka analysis requests, or nil when the consumer is off.
func ProvideRequestHandler(
	cfg *config.Config,
	a *usecase.Analyzer,
	u *universe.Universe,
	pub repository.Publisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AnalysisRequestHandler {
	if !cfg.Kafka.Consumer.Enabled || pub == nil {
		return nil
	}
	h := usecase.NewAnalysisRequestHandler(cfg.Kafka.RequestsTopic, a, u.NormalizeTicker, pub, m)
	h.SetLogger(l)
	return h
}

// ProvideRateLimiter creates the per-client limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideHealthChecks checks the infrastructure the app depends on.
func ProvideHealthChecks(ch *pkgch.Client, rc *cache.RedisCache) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{}
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}
	if rc != nil {
		checks["redis"] = rc.Ping
	}
	return checks
}

// ProvideHTTPServer registers every HTTP handler on the Echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	a *usecase.Analyzer,
	ia *usecase.IndexAnalyzer,
	u *universe.Universe,
	latest *usecase.LatestResults,
	store repository.Storage,
	c cache.Service,
	limiter *ratelimit.Limiter,
	hub *ws.Hub,
	checks map[string]api.HealthCheck,
) *xhttp.Server {
	opts := []api.HandlerOption{api.WithLatest(latest)}
	if store != nil {
		opts = append(opts, api.WithHistory(store))
	}
	if cfg.HTTPCache.Enabled {
		opts = append(opts, api.WithResponseCache(c, cfg.HTTPCache.TTL))
	}
	if limiter != nil {
		opts = append(opts, api.WithRateLimiter(limiter))
	}

	handlers := []xhttp.Handler{
		api.NewAnalysisEchoHandler(l, a, ia, u, opts...),
		api.NewHealthHandler(checks),
	}
	if hub != nil {
		handlers = append(handlers, ws.NewHandler(hub, u.NormalizeTicker))
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideClosers lists the infrastructure clients the app closes last.
func ProvideClosers(ch *pkgch.Client, rc *cache.RedisCache, c cache.Service, lc LatestCache) []io.Closer {
	var out []io.Closer
	if cl, ok := c.(io.Closer); ok {
		out = append(out, cl)
	}
	// A Redis-backed LatestCache is rc itself and is closed below.
	if _, shared := lc.(*cache.RedisCache); !shared {
		if cl, ok := lc.(io.Closer); ok {
			out = append(out, cl)
		}
	}
	if rc != nil {
		out = append(out, rc)
	}
	if ch != nil {
		out = append(out, ch)
	}
	return out
}

// ProvideApp assembles the application and attaches the log collector.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	producer *pkgkafka.Producer,
	srv *xhttp.Server,
	poller *usecase.Poller,
	pipe *mid.ResultPipeline,
	hub *ws.Hub,
	consumer *pkgkafka.Consumer,
	requests *usecase.AnalysisRequestHandler,
	ia *usecase.IndexAnalyzer,
	sink *usecase.ResultSink,
	limiter *ratelimit.Limiter,
	closers []io.Closer,
) *server.App {
	if cfg.Logger.Collector.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			Service:        "alphafusion",
			TimeInterval:   cfg.Logger.Collector.Interval,
			CountThreshold: cfg.Logger.Collector.Threshold,
			Topic:          cfg.Logger.Collector.Topic,
			Publisher:      producer,
		})
	}
	return server.New(cfg, server.Components{
		Logger:     l,
		HTTPServer: srv,
		Poller:     poller,
		Pipeline:   pipe,
		Hub:        hub,
		Consumer:   consumer,
		Requests:   requests,
		Index:      ia,
		Sink:       sink,
		Limiter:    limiter,
		Closers:    closers,
	})
}
