package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"AlphaFusion/internal/domain/models"
	domrepo "AlphaFusion/internal/domain/repository"
	applogger "AlphaFusion/pkg/logger"
)

// ErrPipelineFull is returned by Submit when the buffer has no room.
var ErrPipelineFull = errors.New("result pipeline buffer full")

// Sink is the downstream the pipeline flushes batches to.
type Sink interface {
	ProcessBatch(ctx context.Context, results []*models.AnalysisResult) error
}

// ResultPipeline sits between the poller and the result sink.
// It validates and throttles results, groups them into batches and retries
// failed flushes with capped exponential backoff before dropping them.
type ResultPipeline struct {
	sink    Sink
	metrics domrepo.Metrics
	logger  *applogger.Logger

	batchSize    int
	batchTimeout time.Duration
	bufSize      int
	maxRetries   int
	backoffMin   time.Duration
	backoffMax   time.Duration
	minInterval  time.Duration
	drainTimeout time.Duration

	in     chan *models.AnalysisResult
	stopCh chan struct{}
	doneCh chan struct{}

	mu       sync.Mutex
	started  bool
	stopped  bool
	lastSeen map[string]time.Time
	now      func() time.Time

	dropped atomic.Int64
}

type PipelineOption func(*ResultPipeline)

// WithBatch sets the flush size and the maximum time a partial batch waits.
func WithBatch(size int, timeout time.Duration) PipelineOption {
	return func(p *ResultPipeline) {
		if size > 0 {
			p.batchSize = size
		}
		if timeout > 0 {
			p.batchTimeout = timeout
		}
	}
}

// WithBufferSize sets how many results may wait for a flush.
func WithBufferSize(n int) PipelineOption {
	return func(p *ResultPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithRetry sets the flush retry count and backoff bounds.
func WithRetry(maxRetries int, min, max time.Duration) PipelineOption {
	return func(p *ResultPipeline) {
		if maxRetries >= 0 {
			p.maxRetries = maxRetries
		}
		if min > 0 {
			p.backoffMin = min
		}
		if max >= p.backoffMin {
			p.backoffMax = max
		}
	}
}

// WithMinInterval drops results for a symbol arriving sooner than d after the last accepted one.
func WithMinInterval(d time.Duration) PipelineOption {
	return func(p *ResultPipeline) { p.minInterval = d }
}

func WithPipelineLogger(l *applogger.Logger) PipelineOption {
	return func(p *ResultPipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewResultPipeline creates a pipeline flushing into sink.
func NewResultPipeline(sink Sink, metrics domrepo.Metrics, opts ...PipelineOption) *ResultPipeline {
	p := &ResultPipeline{
		sink:         sink,
		metrics:      metrics,
		logger:       applogger.NewNop(),
		batchSize:    100,
		batchTimeout: time.Second,
		bufSize:      1000,
		maxRetries:   3,
		backoffMin:   50 * time.Millisecond,
		backoffMax:   2 * time.Second,
		drainTimeout: 5 * time.Second,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		lastSeen:     make(map[string]time.Time),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.in = make(chan *models.AnalysisResult, p.bufSize)
	return p
}

// Start launches the background batching loop. Calling it twice is a no-op.
func (p *ResultPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run(ctx)
}

// Stop flushes what is buffered and waits for the loop to exit or ctx to expire.
func (p *ResultPipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stopCh)
	select {
	case <-p.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop pipeline: %w", ctx.Err())
	}
}

// Dropped returns how many results were discarded (buffer full or flush retries exhausted).
func (p *ResultPipeline) Dropped() int64 { return p.dropped.Load() }

// Submit validates, throttles and enqueues r without blocking.
// Throttled results are dropped silently.
func (p *ResultPipeline) Submit(r *models.AnalysisResult) error {
	if err := validateResult(r); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(r.Symbol) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}
	select {
	case p.in <- r:
		return nil
	default:
		p.dropped.Add(1)
		p.metrics.RecordError("pipeline_buffer_full")
		return ErrPipelineFull
	}
}

// OnResult lets the pipeline subscribe to poll-cycle results.
func (p *ResultPipeline) OnResult(_ context.Context, r *models.AnalysisResult) {
	if err := p.Submit(r); err != nil {
		p.logger.Warn("result not queued", applogger.String("symbol", symbolOf(r)), applogger.Error(err))
	}
}

func (p *ResultPipeline) run(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.batchTimeout)
	defer ticker.Stop()

	batch := make([]*models.AnalysisResult, 0, p.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		p.flush(ctx, batch)
		batch = make([]*models.AnalysisResult, 0, p.batchSize)
	}

	for {
		select {
		case r := <-p.in:
			batch = append(batch, r)
			if len(batch) >= p.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			p.drain(ctx, &batch, flush)
			return
		case <-p.stopCh:
			p.drain(ctx, &batch, flush)
			return
		}
	}
}

// drain empties the input channel on shutdown. The parent context may already
// be cancelled, so the final flush gets its own deadline.
func (p *ResultPipeline) drain(ctx context.Context, batch *[]*models.AnalysisResult, flush func(context.Context)) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.drainTimeout)
	defer cancel()
	for {
		select {
		case r := <-p.in:
			*batch = append(*batch, r)
			if len(*batch) >= p.batchSize {
				flush(dctx)
			}
		default:
			flush(dctx)
			return
		}
	}
}

func (p *ResultPipeline) flush(ctx context.Context, batch []*models.AnalysisResult) {
	start := time.Now()
	backoff := p.backoffMin
	for attempt := 0; ; attempt++ {
		err := p.sink.ProcessBatch(ctx, batch)
		if err == nil {
			p.metrics.RecordLatency("pipeline_flush", time.Since(start).Seconds())
			return
		}
		p.metrics.RecordError("pipeline_flush")
		if attempt >= p.maxRetries || ctx.Err() != nil {
			p.dropped.Add(int64(len(batch)))
			p.metrics.RecordError("pipeline_drop")
			p.logger.Error("dropping result batch",
				applogger.Int("size", len(batch)),
				applogger.Int("attempts", attempt+1),
				applogger.Error(err),
			)
			return
		}
		p.logger.Warn("result flush failed, retrying",
			applogger.Int("attempt", attempt+1),
			applogger.Duration("backoff", backoff),
			applogger.Error(err),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
		}
		backoff *= 2
		if backoff > p.backoffMax {
			backoff = p.backoffMax
		}
	}
}

func (p *ResultPipeline) allow(symbol string) bool {
	if p.minInterval <= 0 {
		return true
	}
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if last, ok := p.lastSeen[symbol]; ok && now.Sub(last) < p.minInterval {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}

func validateResult(r *models.AnalysisResult) error {
	if r == nil {
		return fmt.Errorf("result nil")
	}
	if r.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if r.GeneratedAt.IsZero() {
		return fmt.Errorf("generated_at missing")
	}
	return nil
}

func symbolOf(r *models.AnalysisResult) string {
	if r == nil {
		return ""
	}
	return r.Symbol
}
