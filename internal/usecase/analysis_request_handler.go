package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"AlphaFusion/internal/domain/models"
	domrepo "AlphaFusion/internal/domain/repository"
	pkgkafka "AlphaFusion/pkg/kafka"
	applogger "AlphaFusion/pkg/logger"
)

var _ pkgkafka.MessageHandler = (*AnalysisRequestHandler)(nil)

// AnalysisRequest is the payload on the requests topic.
type AnalysisRequest struct {
	Symbol    string `json:"symbol"`
	RequestID string `json:"request_id,omitempty"`
}

// AnalysisRequestHandler answers on-demand analysis requests consumed from
// Kafka by publishing the result to the results topic.
type AnalysisRequestHandler struct {
	topic     string
	analyzer  SymbolAnalyzer
	normalize func(string) string
	pub       domrepo.Publisher
	metrics   domrepo.Metrics
	logger    *applogger.Logger
	now       func() time.Time
}

func NewAnalysisRequestHandler(topic string, analyzer SymbolAnalyzer, normalize func(string) string, pub domrepo.Publisher, metrics domrepo.Metrics) *AnalysisRequestHandler {
	if normalize == nil {
		normalize = strings.ToUpper
	}
	return &AnalysisRequestHandler{
		topic:     topic,
		analyzer:  analyzer,
		normalize: normalize,
		pub:       pub,
		metrics:   metrics,
		logger:    applogger.NewNop(),
		now:       time.Now,
	}
}

// SetLogger injects a structured logger.
func (h *AnalysisRequestHandler) SetLogger(l *applogger.Logger) {
	if l != nil {
		h.logger = l
	}
}

func (h *AnalysisRequestHandler) Topic() string { return h.topic }

// Handle analyzes the requested symbol. Permanent data errors are published
// as error records and acknowledged; other failures are returned so the
// consumer retries and eventually dead-letters the message.
func (h *AnalysisRequestHandler) Handle(ctx context.Context, key, value []byte) error {
	var req AnalysisRequest
	if err := json.Unmarshal(value, &req); err != nil {
		h.metrics.RecordError("request_unmarshal")
		return fmt.Errorf("decode request: %w", err)
	}
	if req.Symbol == "" {
		req.Symbol = string(key)
	}
	symbol := h.normalize(req.Symbol)
	if symbol == "" {
		h.metrics.RecordError("request_invalid")
		return fmt.Errorf("request without symbol")
	}

	start := time.Now()
	res, err := h.analyzer.Analyze(ctx, symbol)
	h.metrics.RecordLatency("request_analyze", time.Since(start).Seconds())
	if err != nil {
		if !permanent(err) {
			h.metrics.RecordError("request_analyze")
			return err
		}
		h.logger.Info("analysis request failed",
			applogger.String("symbol", symbol),
			applogger.String("request_id", req.RequestID),
			applogger.Error(err),
		)
		res = FailedResult(req.RequestID, symbol, err, h.now())
	}
	res.CycleID = req.RequestID

	if err := h.pub.Publish(ctx, res); err != nil {
		h.metrics.RecordError("request_publish")
		return fmt.Errorf("publish result: %w", err)
	}
	h.metrics.RecordMessageSent(BackendKafka)
	return nil
}

func permanent(err error) bool {
	return errors.Is(err, models.ErrInsufficientData) ||
		errors.Is(err, models.ErrMissingPriceData) ||
		errors.Is(err, models.ErrSymbolNotFound)
}
