package usecase

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"AlphaFusion/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func TestSmootherSeedsThenBlends(t *testing.T) {
	ctx := context.Background()
	s := NewSmoother(repository.NewMemorySmoothingStore(), 0.25)

	v, err := s.Smooth(ctx, "RELIANCE.NS", 50)
	require.NoError(t, err)
	assert.Equal(t, 50.0, v)

	v, err = s.Smooth(ctx, "RELIANCE.NS", 80)
	require.NoError(t, err)
	assert.InDelta(t, 57.5, v, 1e-9)
}

func TestSmootherKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewSmoother(repository.NewMemorySmoothingStore(), 0.25)

	_, err := s.Smooth(ctx, "A.NS", 10)
	require.NoError(t, err)
	v, err := s.Smooth(ctx, "B.NS", 90)
	require.NoError(t, err)
	assert.Equal(t, 90.0, v)
}

func TestSmootherInvalidAlphaFallsBack(t *testing.T) {
	assert.Equal(t, DefaultSmoothingAlpha, NewSmoother(repository.NewMemorySmoothingStore(), 0).Alpha())
	assert.Equal(t, DefaultSmoothingAlpha, NewSmoother(repository.NewMemorySmoothingStore(), 1.5).Alpha())
	assert.Equal(t, 1.0, NewSmoother(repository.NewMemorySmoothingStore(), 1).Alpha())
}

func TestSmootherRejectsNonFinite(t *testing.T) {
	s := NewSmoother(repository.NewMemorySmoothingStore(), 0.25)
	_, err := s.Smooth(context.Background(), "A.NS", math.Inf(1))
	assert.Error(t, err)
}

func TestSmootherStoreError(t *testing.T) {
	s := NewSmoother(failingStore{}, 0.25)
	_, err := s.Smooth(context.Background(), "A.NS", 50)
	assert.ErrorContains(t, err, "store down")
}

// overlapStore widens the window between Get and Set and counts how often two
// read-modify-write cycles of one key are in flight together.
type overlapStore struct {
	inner *repository.MemorySmoothingStore

	mu       sync.Mutex
	active   map[string]int
	overlaps int
}

func newOverlapStore() *overlapStore {
	return &overlapStore{inner: repository.NewMemorySmoothingStore(), active: map[string]int{}}
}

func (s *overlapStore) Get(ctx context.Context, id string) (float64, bool, error) {
	s.mu.Lock()
	s.active[id]++
	if s.active[id] > 1 {
		s.overlaps++
	}
	s.mu.Unlock()
	v, ok, err := s.inner.Get(ctx, id)
	time.Sleep(2 * time.Millisecond)
	return v, ok, err
}

func (s *overlapStore) Set(ctx context.Context, id string, v float64) error {
	s.mu.Lock()
	s.active[id]--
	s.mu.Unlock()
	return s.inner.Set(ctx, id, v)
}

func TestSmootherSerializesSameKey(t *testing.T) {
	ctx := context.Background()
	store := newOverlapStore()
	s := NewSmoother(store, 0.5)

	_, err := s.Smooth(ctx, "A.NS", 0)
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Smooth(ctx, "A.NS", 100)
		}()
	}
	wg.Wait()

	assert.Zero(t, store.overlaps)

	// n sequential blends of 100 into 0 with alpha 0.5; a lost update leaves
	// the value further from 100.
	v, ok, err := store.inner.Get(ctx, "A.NS")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 100-100*math.Pow(0.5, n), v, 1e-9)
}
