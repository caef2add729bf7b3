// Package scoring weights normalized features into a 0-100 composite score.
package scoring

import (
	"fmt"
	"math"

	"AlphaFusion/internal/domain/models"
)

// baseWeights are the empirical starting weights before normalization.
var baseWeights = map[string]float64{
	models.FeatureSMATrend: 0.08,
	models.FeatureEMATrend: 0.06,
	models.FeatureMACD:     0.09,
	models.FeatureADX:      0.05,
	models.FeatureRSI:      0.08,
	models.FeatureATR:      0.05,
	models.FeatureBOLL:     0.06,
	models.FeatureOBV:      0.05,
	models.FeatureCMF:      0.04,
	models.FeatureMFI:      0.03,
	models.FeatureSTOCH:    0.04,
	models.FeatureCCI:      0.03,
	models.FeatureVolZ:     0.02,
}

// DefaultWeights returns the base weight vector normalized to sum to 1.
func DefaultWeights() models.WeightVector {
	w := make(models.WeightVector, len(baseWeights))
	for k, v := range baseWeights {
		w[k] = v
	}
	out, _ := NormalizeWeights(w)
	return out
}

// NormalizeWeights validates an override and rescales it to sum to 1.
// Every feature must be present with a finite non-negative weight.
func NormalizeWeights(w models.WeightVector) (models.WeightVector, error) {
	for _, name := range models.FeatureNames {
		v, ok := w[name]
		if !ok {
			return nil, fmt.Errorf("weight for %s missing: %w", name, models.ErrInvalidWeights)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("weight for %s is %v: %w", name, v, models.ErrInvalidWeights)
		}
	}
	for k := range w {
		if _, ok := baseWeights[k]; !ok {
			return nil, fmt.Errorf("unknown feature %q: %w", k, models.ErrInvalidWeights)
		}
	}
	sum := w.Sum()
	if sum <= minWeightSum {
		return nil, fmt.Errorf("weights sum to %v: %w", sum, models.ErrInvalidWeights)
	}
	out := make(models.WeightVector, len(w))
	for k, v := range w {
		out[k] = v / sum
	}
	return out, nil
}

const minWeightSum = 1e-9

// AdaptParams holds the regime-adaptation factors.
type AdaptParams struct {
	// TrendCutoff is the ADX feature level above which the market counts as trending.
	TrendCutoff float64
	// TrendBoost scales SMA_trend, EMA_trend and MACD weights in a trend.
	TrendBoost float64
	// BollDamp scales down BOLL in a trend, never below BollFloor.
	BollDamp  float64
	BollFloor float64
	// RangeBollBoost and RangeRSIBoost scale BOLL and RSI in a range.
	RangeBollBoost float64
	RangeRSIBoost  float64
}

// DefaultAdaptParams returns the empirical adaptation factors.
func DefaultAdaptParams() AdaptParams {
	return AdaptParams{
		TrendCutoff:    0.3,
		TrendBoost:     0.5,
		BollDamp:       0.8,
		BollFloor:      0.4,
		RangeBollBoost: 0.8,
		RangeRSIBoost:  0.3,
	}
}

// AdaptWeights reweights base by trend strength and renormalizes over finite
// entries. When the finite sum is too small to normalize the scaled weights are
// returned as is. base is not modified.
func AdaptWeights(base models.WeightVector, features models.FeatureVector, p AdaptParams) models.WeightVector {
	w := base.Clone()
	boost := adxStrength(features)

	scale := func(name string, f float64) {
		if v, ok := w[name]; ok {
			w[name] = v * f
		}
	}
	if Trending(features, p) {
		for _, name := range []string{models.FeatureSMATrend, models.FeatureEMATrend, models.FeatureMACD} {
			scale(name, 1+p.TrendBoost*boost)
		}
		scale(models.FeatureBOLL, math.Max(p.BollFloor, 1-p.BollDamp*boost))
	} else {
		scale(models.FeatureBOLL, 1+p.RangeBollBoost*(p.TrendCutoff-boost))
		scale(models.FeatureRSI, 1+p.RangeRSIBoost*(p.TrendCutoff-boost))
	}

	sum := w.Sum()
	if sum <= minWeightSum {
		return w
	}
	for k, v := range w {
		w[k] = v / sum
	}
	return w
}

// Trending reports whether the ADX feature puts the market in the trending regime.
func Trending(features models.FeatureVector, p AdaptParams) bool {
	return adxStrength(features) > p.TrendCutoff
}

func adxStrength(features models.FeatureVector) float64 {
	return math.Max(0, features.Get(models.FeatureADX))
}
