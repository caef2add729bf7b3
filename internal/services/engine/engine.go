// Package engine chains indicator computation, feature normalization,
// regime weighting, scoring and signal decision for one candle series.
package engine

import (
	"fmt"

	"AlphaFusion/internal/domain/models"
	domsvc "AlphaFusion/internal/domain/service"
	"AlphaFusion/internal/services/features"
	"AlphaFusion/internal/services/indicators"
	"AlphaFusion/internal/services/scoring"
	"AlphaFusion/internal/services/signals"
)

// Engine is stateless after construction and safe for concurrent use.
type Engine struct {
	normalizer *features.Normalizer
	weights    models.WeightVector
	adapt      scoring.AdaptParams
	decision   signals.Params
}

type Option func(*Engine)

// WithWeights overrides the base weights. The vector must already be normalized.
func WithWeights(w models.WeightVector) Option {
	return func(e *Engine) {
		if len(w) > 0 {
			e.weights = w.Clone()
		}
	}
}

func WithAdaptParams(p scoring.AdaptParams) Option {
	return func(e *Engine) { e.adapt = p }
}

func WithDecisionParams(p signals.Params) Option {
	return func(e *Engine) { e.decision = p }
}

func WithNormalizer(n *features.Normalizer) Option {
	return func(e *Engine) {
		if n != nil {
			e.normalizer = n
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		normalizer: features.NewNormalizer(),
		weights:    scoring.DefaultWeights(),
		adapt:      scoring.DefaultAdaptParams(),
		decision:   signals.DefaultParams(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs the pure stages up to confidence. The raw score is in eval.Score.
func (e *Engine) Evaluate(candles []models.Candle) (*models.Evaluation, error) {
	rows, err := indicators.Compute(candles)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	set, err := e.normalizer.Normalize(rows)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	weights := scoring.AdaptWeights(e.weights, set.Features, e.adapt)
	res := scoring.Aggregate(set.Features, weights)
	return &models.Evaluation{
		Latest:     rows[len(rows)-1],
		Features:   set,
		Weights:    weights,
		Score:      res,
		Confidence: scoring.Confidence(res.Breakdown, set.Features),
	}, nil
}

// Decide maps score, which may be the smoothed value, to a signal and a stop
// using the latest bar of eval.
func (e *Engine) Decide(eval *models.Evaluation, score float64) models.Decision {
	sig := signals.Recommend(score, eval.Confidence, eval.Features.RetZ, eval.Features.VolZ, e.decision)
	return models.Decision{
		Signal:    sig,
		StopPrice: signals.SmartStop(eval.Latest.Close, eval.Latest.ATR, sig),
	}
}

// Weights returns a copy of the base weights.
func (e *Engine) Weights() models.WeightVector { return e.weights.Clone() }

var _ domsvc.Scorer = (*Engine)(nil)
