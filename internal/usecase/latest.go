package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"AlphaFusion/internal/domain/models"
	"AlphaFusion/pkg/cache"
	applogger "AlphaFusion/pkg/logger"
)

// LatestResults keeps the most recent successful poll result per symbol.
type LatestResults struct {
	cache  cache.Service
	ttl    time.Duration
	logger *applogger.Logger
}

// NewLatestResults stores views in c. A ttl of zero keeps them until overwritten.
func NewLatestResults(c cache.Service, ttl time.Duration) *LatestResults {
	return &LatestResults{cache: c, ttl: ttl, logger: applogger.NewNop()}
}

// SetLogger injects a structured logger.
func (l *LatestResults) SetLogger(lg *applogger.Logger) {
	if lg != nil {
		l.logger = lg
	}
}

func latestKey(symbol string) string {
	return cache.GenerateKey("latest", strings.ToUpper(symbol))
}

// OnResult records r unless it is an error record.
func (l *LatestResults) OnResult(ctx context.Context, r *models.AnalysisResult) {
	if r == nil || r.Failed() {
		return
	}
	if err := l.cache.Set(ctx, latestKey(r.Symbol), r.View(), l.ttl); err != nil {
		l.logger.Warn("latest result not cached", applogger.String("symbol", r.Symbol), applogger.Error(err))
	}
}

// Get returns the latest view for symbol or ErrNoResultYet.
func (l *LatestResults) Get(ctx context.Context, symbol string) (*models.AnalysisView, error) {
	var v models.AnalysisView
	if err := l.cache.Get(ctx, latestKey(symbol), &v); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, fmt.Errorf("%s: %w", symbol, models.ErrNoResultYet)
		}
		return nil, fmt.Errorf("latest %s: %w", symbol, err)
	}
	return &v, nil
}
