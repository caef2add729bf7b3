package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"

	domrepo "AlphaFusion/internal/domain/repository"
	domsvc "AlphaFusion/internal/domain/service"
)

// DefaultSmoothingAlpha weights the newest raw score.
const DefaultSmoothingAlpha = 0.25

var _ domsvc.Smoother = (*Smoother)(nil)

// Smoother applies an EWMA to each instrument's score across poll cycles.
// Cycles of the same instrument serialize on a per-key lock so the
// read-modify-write of the stored value is never interleaved.
type Smoother struct {
	store domrepo.SmoothingStore
	alpha float64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSmoother creates a smoother over store. Alpha outside (0, 1] falls back to the default.
func NewSmoother(store domrepo.SmoothingStore, alpha float64) *Smoother {
	if !(alpha > 0 && alpha <= 1) {
		alpha = DefaultSmoothingAlpha
	}
	return &Smoother{store: store, alpha: alpha, locks: make(map[string]*sync.Mutex)}
}

// Alpha returns the EWMA weight in use.
func (s *Smoother) Alpha() float64 { return s.alpha }

// Smooth blends raw into the stored value for id and persists the result.
// The first observation (or an undefined prior) seeds the state with raw.
func (s *Smoother) Smooth(ctx context.Context, id string, raw float64) (float64, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("smooth %s: non-finite score", id)
	}

	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	prev, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("smooth %s: %w", id, err)
	}

	next := raw
	if ok && !math.IsNaN(prev) && !math.IsInf(prev, 0) {
		next = s.alpha*raw + (1-s.alpha)*prev
	}

	if err := s.store.Set(ctx, id, next); err != nil {
		return 0, fmt.Errorf("smooth %s: %w", id, err)
	}
	return next, nil
}

func (s *Smoother) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}
