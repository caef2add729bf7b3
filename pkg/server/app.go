package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AlphaFusion/internal/handler/ws"
	mid "AlphaFusion/internal/middleware"
	"AlphaFusion/internal/service/ratelimit"
	"AlphaFusion/internal/usecase"
	"AlphaFusion/pkg/config"
	xhttp "AlphaFusion/pkg/http"
	pkgkafka "AlphaFusion/pkg/kafka"
	applogger "AlphaFusion/pkg/logger"
)

// Components are the long-lived parts the App starts and stops. Nil members
// are features disabled by configuration.
type Components struct {
	Logger     *applogger.Logger
	HTTPServer *xhttp.Server
	Poller     *usecase.Poller
	Pipeline   *mid.ResultPipeline
	Hub        *ws.Hub
	Consumer   *pkgkafka.Consumer
	Requests   *usecase.AnalysisRequestHandler
	Index      *usecase.IndexAnalyzer
	Sink       *usecase.ResultSink
	Limiter    *ratelimit.Limiter
	// Closers release infrastructure clients after everything else stopped.
	Closers []io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg *config.Config
	c   Components
	l   *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, c Components) *App {
	l := c.Logger
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{cfg: cfg, c: c, l: l}
}

// Run starts the application and blocks until interrupted or the HTTP server fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		_ = a.Shutdown(context.Background())
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err := <-a.serverErrors():
		a.l.Error("http server failed", applogger.Error(err))
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (a *App) serverErrors() <-chan error {
	if a.c.HTTPServer == nil {
		return nil
	}
	return a.c.HTTPServer.Errors()
}

// Start launches every enabled component.
func (a *App) Start(ctx context.Context) error {
	if a.c.Pipeline != nil {
		a.c.Pipeline.Start(ctx)
		a.l.Info("result pipeline started", applogger.String("backend", a.cfg.Backend.Type))
	}

	if a.c.Poller != nil {
		if err := a.c.Poller.Start(ctx); err != nil {
			return fmt.Errorf("start poller: %w", err)
		}
	}

	if a.c.Consumer != nil && a.c.Requests != nil {
		a.c.Consumer.RegisterHandler(a.c.Requests)
		if err := a.c.Consumer.Start(); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.c.Requests.Topic()))
	}

	if a.c.Limiter != nil {
		go a.pruneLimiter(ctx)
	}

	if a.c.HTTPServer != nil {
		if err := a.c.HTTPServer.Start(); err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
		a.l.Info("http server started",
			applogger.String("host", a.cfg.Server.Host),
			applogger.Int("port", a.cfg.Server.Port),
		)
	}
	return nil
}

func (a *App) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.c.Limiter.Prune(10 * time.Minute); n > 0 {
				a.l.Debug("pruned idle rate limit buckets", applogger.Int("count", n))
			}
		}
	}
}

// Shutdown stops producers of work before the sinks they feed, then closes
// infrastructure clients. Errors are logged and the first one is returned.
func (a *App) Shutdown(ctx context.Context) error {
	a.l.Info("shutting down...")
	var first error
	note := func(what string, err error) {
		if err == nil {
			return
		}
		a.l.Warn(what+" error", applogger.Error(err))
		if first == nil {
			first = fmt.Errorf("%s: %w", what, err)
		}
	}

	if a.c.HTTPServer != nil {
		note("http shutdown", a.c.HTTPServer.Stop(ctx))
	}
	if a.c.Poller != nil {
		note("poller shutdown", a.c.Poller.Shutdown(ctx))
	}
	if a.c.Consumer != nil {
		note("kafka consumer stop", a.c.Consumer.Stop(ctx))
	}
	if a.c.Pipeline != nil {
		note("pipeline stop", a.c.Pipeline.Stop(ctx))
		if n := a.c.Pipeline.Dropped(); n > 0 {
			a.l.Warn("results dropped during run", applogger.Int64("count", n))
		}
	}
	if a.c.Hub != nil {
		a.c.Hub.Close()
	}

	// The log collector publishes through the Kafka producer, so it goes before the sink.
	a.l.RemoveCollector()
	if a.c.Sink != nil {
		a.c.Sink.Close()
	}
	for _, c := range a.c.Closers {
		note("close", c.Close())
	}

	a.l.Info("shutdown complete")
	return first
}

// RunOnce analyzes each configured index once, logs the summaries and returns.
func (a *App) RunOnce(ctx context.Context) error {
	defer func() { _ = a.Shutdown(context.Background()) }()

	if a.c.Index == nil {
		return fmt.Errorf("index analysis is not configured")
	}
	indices := a.cfg.Poller.Indices
	if len(indices) == 0 {
		indices = []string{"NIFTY50"}
	}

	var failed int
	for _, name := range indices {
		sum, err := a.c.Index.AnalyzeIndex(ctx, name)
		if err != nil {
			failed++
			a.l.Error("index analysis failed", applogger.String("index", name), applogger.Error(err))
			continue
		}
		dist := make(map[string]int, len(sum.SignalDistribution))
		for s, n := range sum.SignalDistribution {
			dist[s.String()] = n
		}
		a.l.Info("index summary",
			applogger.String("index", sum.Index),
			applogger.Int("total", sum.TotalInList),
			applogger.Int("analyzed", sum.TotalAnalyzed),
			applogger.Float64("average_score", sum.AverageScore),
			applogger.String("interpretation", sum.Interpretation),
			applogger.Any("signals", dist),
		)
	}
	if failed == len(indices) {
		return fmt.Errorf("no index could be analyzed")
	}
	return nil
}
