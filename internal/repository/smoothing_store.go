package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	domrepo "AlphaFusion/internal/domain/repository"
	"AlphaFusion/pkg/cache"
)

var (
	_ domrepo.SmoothingStore = (*MemorySmoothingStore)(nil)
	_ domrepo.SmoothingStore = (*CacheSmoothingStore)(nil)
)

// MemorySmoothingStore keeps smoothed scores in process memory.
type MemorySmoothingStore struct {
	mu sync.RWMutex
	m  map[string]float64
}

func NewMemorySmoothingStore() *MemorySmoothingStore {
	return &MemorySmoothingStore{m: make(map[string]float64)}
}

func (s *MemorySmoothingStore) Get(_ context.Context, id string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[id]
	return v, ok, nil
}

func (s *MemorySmoothingStore) Set(_ context.Context, id string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("smoothing store: non-finite value for %s", id)
	}
	s.mu.Lock()
	s.m[id] = v
	s.mu.Unlock()
	return nil
}

// CacheSmoothingStore keeps smoothed scores in a cache.Service, usually
// Redis, so several replicas share one smoothing state.
type CacheSmoothingStore struct {
	c      cache.Service
	prefix string
	ttl    time.Duration
}

// NewCacheSmoothingStore stores values under prefix:id. A ttl of zero keeps them forever.
func NewCacheSmoothingStore(c cache.Service, prefix string, ttl time.Duration) *CacheSmoothingStore {
	return &CacheSmoothingStore{c: c, prefix: prefix, ttl: ttl}
}

func (s *CacheSmoothingStore) Get(ctx context.Context, id string) (float64, bool, error) {
	var v float64
	err := s.c.Get(ctx, cache.GenerateKey(s.prefix, id), &v)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("smoothing store get %s: %w", id, err)
	}
	return v, true, nil
}

func (s *CacheSmoothingStore) Set(ctx context.Context, id string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("smoothing store: non-finite value for %s", id)
	}
	if err := s.c.Set(ctx, cache.GenerateKey(s.prefix, id), v, s.ttl); err != nil {
		return fmt.Errorf("smoothing store set %s: %w", id, err)
	}
	return nil
}
