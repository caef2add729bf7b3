package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"AlphaFusion/internal/domain/models"
	"AlphaFusion/internal/services/universe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu    sync.Mutex
	fail  map[string]error
	calls int
}

func (r *fakeRunner) RunCycle(_ context.Context, cycleID, symbol string) (*models.AnalysisResult, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if err := r.fail[symbol]; err != nil {
		return nil, err
	}
	return &models.AnalysisResult{CycleID: cycleID, Symbol: symbol, Score: 55, GeneratedAt: time.Now()}, nil
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type collector struct {
	mu  sync.Mutex
	got []*models.AnalysisResult
}

func (c *collector) OnResult(_ context.Context, r *models.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, r)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func TestRunOnceIsolatesFailures(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{"B.NS": models.ErrInsufficientData}}
	col := &collector{}
	p := NewPoller(runner, []string{"A.NS", "B.NS", "C.NS"}, PollerConfig{Concurrency: 2}, newFakeMetrics(), col)

	rep := p.RunOnce(context.Background())
	assert.Equal(t, 2, rep.Succeeded)
	assert.Equal(t, 1, rep.Failed)
	assert.NotEmpty(t, rep.CycleID)

	require.Equal(t, 3, col.len())
	var failed *models.AnalysisResult
	for _, r := range col.got {
		assert.Equal(t, rep.CycleID, r.CycleID)
		if r.Failed() {
			failed = r
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "B.NS", failed.Symbol)
}

func TestPollerStartShutdown(t *testing.T) {
	runner := &fakeRunner{}
	var fn int
	var mu sync.Mutex
	p := NewPoller(runner, []string{"A.NS"}, PollerConfig{Interval: 10 * time.Millisecond}, newFakeMetrics(),
		SubscriberFunc(func(context.Context, *models.AnalysisResult) {
			mu.Lock()
			fn++
			mu.Unlock()
		}))

	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()))
	assert.Eventually(t, func() bool { return runner.count() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
	require.NoError(t, p.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, fn, 2)
}

func TestPollerRequiresSymbols(t *testing.T) {
	p := NewPoller(&fakeRunner{}, nil, PollerConfig{}, newFakeMetrics())
	assert.Error(t, p.Start(context.Background()))
}

func TestResolveSymbols(t *testing.T) {
	u := universe.New(map[string][]string{
		"IDX": {"A.NS", "B.NS"},
		"BSE": {"Z.BO"},
	})
	got, err := ResolveSymbols(u, []string{"idx"}, []string{"b", " c ", "z", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"A.NS", "B.NS", "C", "Z.BO"}, got)

	_, err = ResolveSymbols(u, []string{"MISSING"}, nil)
	assert.ErrorIs(t, err, models.ErrUnknownIndex)
}
