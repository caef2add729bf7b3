package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AlphaFusion/internal/domain/models"
	drepo "AlphaFusion/internal/domain/repository"
	domsvc "AlphaFusion/internal/domain/service"
	applogger "AlphaFusion/pkg/logger"

	"github.com/google/uuid"
)

// CycleRunner is the part of Analyzer the poller drives.
type CycleRunner interface {
	RunCycle(ctx context.Context, cycleID, symbol string) (*models.AnalysisResult, error)
}

// ResultSubscriber receives every result (including error records) of a poll cycle.
type ResultSubscriber interface {
	OnResult(ctx context.Context, r *models.AnalysisResult)
}

// SubscriberFunc adapts a function to ResultSubscriber.
type SubscriberFunc func(ctx context.Context, r *models.AnalysisResult)

func (f SubscriberFunc) OnResult(ctx context.Context, r *models.AnalysisResult) { f(ctx, r) }

// CycleReport summarizes one poll cycle.
type CycleReport struct {
	CycleID   string
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// PollerConfig controls the poll loop.
type PollerConfig struct {
	Interval    time.Duration
	Concurrency int
	// Timeout bounds a single instrument's pass.
	Timeout time.Duration
}

// Poller analyzes the configured symbols once per interval and fans the
// results out to its subscribers.
type Poller struct {
	runner      CycleRunner
	symbols     []string
	cfg         PollerConfig
	subscribers []ResultSubscriber
	metrics     drepo.Metrics
	logger      *applogger.Logger
	now         func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewPoller creates a poller over symbols.
func NewPoller(runner CycleRunner, symbols []string, cfg PollerConfig, metrics drepo.Metrics, subscribers ...ResultSubscriber) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Poller{
		runner:      runner,
		symbols:     append([]string(nil), symbols...),
		cfg:         cfg,
		subscribers: subscribers,
		metrics:     metrics,
		logger:      applogger.NewNop(),
		now:         time.Now,
	}
}

// SetLogger injects a structured logger.
func (p *Poller) SetLogger(l *applogger.Logger) {
	if l != nil {
		p.logger = l
	}
}

// Subscribe adds a subscriber. It must be called before Start.
func (p *Poller) Subscribe(s ResultSubscriber) {
	p.subscribers = append(p.subscribers, s)
}

// Symbols returns the polled symbols.
func (p *Poller) Symbols() []string { return append([]string(nil), p.symbols...) }

// Start runs a cycle immediately and then one per interval until Shutdown.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("poller already running")
	}
	if len(p.symbols) == 0 {
		return fmt.Errorf("poller has no symbols")
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.running = true

	go p.loop(ctx)

	p.logger.Info("poller started",
		applogger.Int("symbols", len(p.symbols)),
		applogger.Duration("interval", p.cfg.Interval),
		applogger.Int("concurrency", p.cfg.Concurrency),
	)
	return nil
}

// Shutdown stops the loop and waits for the in-flight cycle or ctx expiry.
func (p *Poller) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.cancel()
	done := p.done
	p.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("poller shutdown: %w", ctx.Err())
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce executes one poll cycle over every symbol with bounded concurrency.
// A failing instrument produces an error record and never aborts the cycle.
func (p *Poller) RunOnce(ctx context.Context) CycleReport {
	start := time.Now()
	report := CycleReport{CycleID: uuid.NewString()}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, p.cfg.Concurrency)
	)

loop:
	for _, sym := range p.symbols {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			defer func() { <-sem }()

			ok := p.runSymbol(ctx, report.CycleID, sym)
			mu.Lock()
			if ok {
				report.Succeeded++
			} else {
				report.Failed++
			}
			mu.Unlock()
		}(sym)
	}
	wg.Wait()

	report.Duration = time.Since(start)
	p.metrics.RecordLatency("cycle", report.Duration.Seconds())
	p.logger.Info("poll cycle complete",
		applogger.String("cycle_id", report.CycleID),
		applogger.Int("succeeded", report.Succeeded),
		applogger.Int("failed", report.Failed),
		applogger.Duration("duration", report.Duration),
	)
	return report
}

func (p *Poller) runSymbol(ctx context.Context, cycleID, sym string) bool {
	sctx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	res, err := p.runner.RunCycle(sctx, cycleID, sym)
	if err != nil {
		p.metrics.RecordError("cycle_symbol")
		p.logger.Warn("instrument analysis failed",
			applogger.String("cycle_id", cycleID),
			applogger.String("symbol", sym),
			applogger.Error(err),
		)
		res = FailedResult(cycleID, sym, err, p.now())
	}
	for _, s := range p.subscribers {
		s.OnResult(ctx, res)
	}
	return err == nil
}

// ResolveSymbols expands indices through u and merges them with the
// explicit symbols, normalized and de-duplicated in first-seen order.
func ResolveSymbols(u domsvc.Universe, indices, symbols []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = u.NormalizeTicker(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, idx := range indices {
		members, err := u.Resolve(idx)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", idx, err)
		}
		for _, m := range members {
			add(m)
		}
	}
	for _, s := range symbols {
		add(s)
	}
	return out, nil
}
