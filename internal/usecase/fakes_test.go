package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"AlphaFusion/internal/domain/models"
)

type fakeMetrics struct {
	mu       sync.Mutex
	errors   map[string]int
	analyses map[models.Signal]int
	degraded []string
	nonFin   int
	sent     map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: map[string]int{}, analyses: map[models.Signal]int{}, sent: map[string]int{}}
}

func (m *fakeMetrics) RecordAnalysis(_ string, s models.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses[s]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordScore(string, float64, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)        {}

func (m *fakeMetrics) RecordDegraded(f string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degraded = append(m.degraded, f)
}

func (m *fakeMetrics) RecordNonFiniteScore() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nonFin++
}

func (m *fakeMetrics) RecordMessageSent(backend string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[backend]++
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakeLoader struct {
	open bool
	errs map[string]error
}

func (l *fakeLoader) Load(_ context.Context, symbol string) (*models.CandleSeries, error) {
	if err := l.errs[symbol]; err != nil {
		return nil, err
	}
	interval := "1d"
	if l.open {
		interval = "1m"
	}
	return &models.CandleSeries{
		Symbol:     symbol,
		Interval:   interval,
		MarketOpen: l.open,
		Candles:    []models.Candle{{Time: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Close: 100}},
	}, nil
}

// fakeScorer returns a fixed evaluation and maps scores onto coarse signals.
type fakeScorer struct {
	score     float64
	recovered bool
	degraded  []string
}

func (s *fakeScorer) Evaluate(c []models.Candle) (*models.Evaluation, error) {
	if len(c) == 0 {
		return nil, models.ErrInsufficientData
	}
	last := c[len(c)-1]
	return &models.Evaluation{
		Latest:     models.IndicatorRow{Time: last.Time, Close: last.Close, RSI: 55, SMA20: 1, SMA50: nan()},
		Features:   models.FeatureSet{Features: models.FeatureVector{models.FeatureRSI: 0.1}, Degraded: s.degraded},
		Weights:    models.WeightVector{models.FeatureRSI: 1},
		Score:      models.ScoreResult{Score: s.score, Breakdown: map[string]float64{models.FeatureRSI: 0.1}, Recovered: s.recovered},
		Confidence: 0.5,
	}, nil
}

func (s *fakeScorer) Decide(eval *models.Evaluation, score float64) models.Decision {
	sig := models.SignalHold
	switch {
	case score >= 60:
		sig = models.SignalBuy
	case score < 30:
		sig = models.SignalExit
	}
	return models.Decision{Signal: sig, StopPrice: eval.Latest.Close * 0.98}
}

type fakeSmoother struct {
	value float64
	err   error
	calls int
}

func (s *fakeSmoother) Smooth(_ context.Context, _ string, _ float64) (float64, error) {
	s.calls++
	return s.value, s.err
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (float64, bool, error) {
	return 0, false, errors.New("store down")
}

func (failingStore) Set(context.Context, string, float64) error { return errors.New("store down") }

type fakePublisher struct {
	mu      sync.Mutex
	err     error
	batches int
	results []*models.AnalysisResult
	closed  bool
}

func (p *fakePublisher) Publish(_ context.Context, r *models.AnalysisResult) error {
	return p.PublishBatch(context.Background(), []*models.AnalysisResult{r})
}

func (p *fakePublisher) PublishBatch(_ context.Context, rs []*models.AnalysisResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches++
	p.results = append(p.results, rs...)
	return nil
}

func (p *fakePublisher) Close() error { p.closed = true; return nil }

type fakeStorage struct {
	err     error
	results []*models.AnalysisResult
	closed  bool
}

func (s *fakeStorage) Init(context.Context) error { return nil }
func (s *fakeStorage) Store(ctx context.Context, r *models.AnalysisResult) error {
	return s.StoreBatch(ctx, []*models.AnalysisResult{r})
}
func (s *fakeStorage) StoreBatch(_ context.Context, rs []*models.AnalysisResult) error {
	if s.err != nil {
		return s.err
	}
	s.results = append(s.results, rs...)
	return nil
}
func (s *fakeStorage) Query(context.Context, string, time.Time, time.Time, int) ([]*models.AnalysisResult, error) {
	return s.results, nil
}
func (s *fakeStorage) Health(context.Context) error { return nil }
func (s *fakeStorage) Close() error                 { s.closed = true; return nil }
