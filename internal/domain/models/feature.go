package models

import (
	"math"
	"sort"
)

// Canonical feature names. The order of FeatureNames is the scoring order.
const (
	FeatureSMATrend = "SMA_trend"
	FeatureEMATrend = "EMA_trend"
	FeatureMACD     = "MACD"
	FeatureADX      = "ADX"
	FeatureRSI      = "RSI"
	FeatureATR      = "ATR"
	FeatureBOLL     = "BOLL"
	FeatureOBV      = "OBV"
	FeatureCMF      = "CMF"
	FeatureMFI      = "MFI"
	FeatureSTOCH    = "STOCH"
	FeatureCCI      = "CCI"
	FeatureVolZ     = "VOL_Z"
)

// FeatureNames lists the 13 scoring features.
var FeatureNames = []string{
	FeatureSMATrend,
	FeatureEMATrend,
	FeatureMACD,
	FeatureADX,
	FeatureRSI,
	FeatureATR,
	FeatureBOLL,
	FeatureOBV,
	FeatureCMF,
	FeatureMFI,
	FeatureSTOCH,
	FeatureCCI,
	FeatureVolZ,
}

// FeatureCount is the fixed number of scoring features.
var FeatureCount = len(FeatureNames)

// FeatureVector maps feature name to a normalized value in [-1, 1].
type FeatureVector map[string]float64

// Get returns the value for name, treating missing or non-finite values as 0.
func (f FeatureVector) Get(name string) float64 {
	v, ok := f[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// WeightVector maps feature name to a non-negative weight.
type WeightVector map[string]float64

// Clone returns a copy of w.
func (w WeightVector) Clone() WeightVector {
	out := make(WeightVector, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Sum adds the finite weights in scoring order.
func (w WeightVector) Sum() float64 {
	s := 0.0
	for _, name := range ScoringOrder(w) {
		v := w[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		s += v
	}
	return s
}

// FeatureSet is the normalizer output for the latest bar.
type FeatureSet struct {
	Features FeatureVector
	// RetZ and VolZ are the raw z-scores of the latest bar, NaN when undefined.
	RetZ float64
	VolZ float64
	// Degraded lists features that fell back to the neutral value.
	Degraded []string
}

// ScoreResult is the composite score with its per-feature contributions.
type ScoreResult struct {
	Score     float64
	Breakdown map[string]float64
	// Recovered is set when the raw arithmetic was non-finite and the score fell back to neutral.
	Recovered bool
}

// ScoringOrder returns the keys of m with the known features first, in
// FeatureNames order, then any other keys sorted. Float sums taken in this
// order are reproducible across calls.
func ScoringOrder(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for _, name := range FeatureNames {
		if _, ok := m[name]; ok {
			out = append(out, name)
		}
	}
	if len(out) == len(m) {
		return out
	}
	known := make(map[string]struct{}, len(FeatureNames))
	for _, name := range FeatureNames {
		known[name] = struct{}{}
	}
	var extra []string
	for k := range m {
		if _, ok := known[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
