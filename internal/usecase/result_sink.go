package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AlphaFusion/internal/domain/models"
	drepo "AlphaFusion/internal/domain/repository"
)

// Result sink backends.
const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendBoth       = "both"
	BackendNone       = "none"
)

// ResultSink routes analysis results to Kafka, ClickHouse or both.
type ResultSink struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
}

// NewResultSink creates a sink. pub and store may be nil when the backend does not use them.
func NewResultSink(pub drepo.Publisher, store drepo.Storage, metrics drepo.Metrics, backend string) *ResultSink {
	return &ResultSink{pub: pub, store: store, metrics: metrics, backend: backend}
}

func (s *ResultSink) publishes() bool {
	return s.backend == BackendKafka || s.backend == BackendBoth
}

func (s *ResultSink) stores() bool {
	return s.backend == BackendClickHouse || s.backend == BackendBoth
}

// Process routes a single result.
func (s *ResultSink) Process(ctx context.Context, r *models.AnalysisResult) error {
	if r == nil {
		return fmt.Errorf("result is nil")
	}
	return s.ProcessBatch(ctx, []*models.AnalysisResult{r})
}

// ProcessBatch routes results to every configured backend. A failure in one
// backend does not stop the other; the errors are joined.
func (s *ResultSink) ProcessBatch(ctx context.Context, results []*models.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}

	start := time.Now()
	var errs []error

	switch s.backend {
	case BackendKafka, BackendClickHouse, BackendBoth:
	case BackendNone, "":
		return nil
	default:
		return fmt.Errorf("unknown backend: %s", s.backend)
	}

	if s.publishes() {
		if s.pub == nil {
			errs = append(errs, errors.New("kafka backend without publisher"))
		} else if err := s.pub.PublishBatch(ctx, results); err != nil {
			s.metrics.RecordError("publish_batch")
			errs = append(errs, fmt.Errorf("publish batch: %w", err))
		} else {
			s.sent(BackendKafka, len(results))
		}
	}
	if s.stores() {
		if s.store == nil {
			errs = append(errs, errors.New("clickhouse backend without storage"))
		} else if err := s.store.StoreBatch(ctx, results); err != nil {
			s.metrics.RecordError("store_batch")
			errs = append(errs, fmt.Errorf("store batch: %w", err))
		} else {
			s.sent(BackendClickHouse, len(results))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

func (s *ResultSink) sent(backend string, n int) {
	for i := 0; i < n; i++ {
		s.metrics.RecordMessageSent(backend)
	}
}

// Close closes underlying resources if available.
func (s *ResultSink) Close() {
	if s.pub != nil {
		_ = s.pub.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
}
