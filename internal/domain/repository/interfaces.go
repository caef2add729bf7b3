package repository

import (
	"context"
	"time"

	"AlphaFusion/internal/domain/models"
)

// Publisher ships analysis results to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, r *models.AnalysisResult) error
	PublishBatch(ctx context.Context, results []*models.AnalysisResult) error
	Close() error
}

// Storage persists analysis results.
type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, r *models.AnalysisResult) error
	StoreBatch(ctx context.Context, results []*models.AnalysisResult) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.AnalysisResult, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// SmoothingStore keeps the last smoothed score per instrument.
type SmoothingStore interface {
	Get(ctx context.Context, id string) (float64, bool, error)
	Set(ctx context.Context, id string, v float64) error
}

// Metrics records analysis outcomes.
type Metrics interface {
	RecordAnalysis(symbol string, signal models.Signal)
	RecordError(kind string)
	RecordScore(symbol string, raw, smoothed float64)
	RecordLatency(op string, seconds float64)
	RecordDegraded(feature string)
	RecordNonFiniteScore()
	RecordMessageSent(backend string)
}
