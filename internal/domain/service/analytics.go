package service

import (
	"context"

	"AlphaFusion/internal/domain/models"
)

// Scorer runs the pure scoring stages over a candle series.
type Scorer interface {
	// Evaluate computes indicators, features, adapted weights, score and confidence.
	Evaluate(candles []models.Candle) (*models.Evaluation, error)
	// Decide maps a (possibly smoothed) score to a signal and protective stop.
	Decide(eval *models.Evaluation, score float64) models.Decision
}

// HistoryLoader supplies the candle series used for one analysis.
type HistoryLoader interface {
	Load(ctx context.Context, symbol string) (*models.CandleSeries, error)
}

// Smoother blends a raw score into the per-instrument cross-cycle state.
type Smoother interface {
	Smooth(ctx context.Context, id string, raw float64) (float64, error)
}

// Universe resolves index names to constituent tickers.
type Universe interface {
	Resolve(name string) ([]string, error)
	Names() []string
	NormalizeTicker(input string) string
}
