package repository

import (
	"context"
	"time"

	"AlphaFusion/internal/domain/models"
)

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF1d  Timeframe = "1d"
)

// CandleSource provides read-only access to OHLCV candles for analysis.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}

// RangeFetcher fetches candles for an interval over a lookback range such as "7d" or "1y".
type RangeFetcher interface {
	FetchCandles(ctx context.Context, symbol string, tf Timeframe, rng string) ([]models.Candle, error)
}
