package scoring

import (
	"math"

	"AlphaFusion/internal/domain/models"
)

// NeutralScore is the fallback when the weighted sum is not a finite number.
const NeutralScore = 50.0

// Aggregate computes the weighted sum of features mapped to [0, 100] with the
// signed contribution of every weighted feature.
func Aggregate(features models.FeatureVector, weights models.WeightVector) models.ScoreResult {
	breakdown := make(map[string]float64, len(weights))
	sum := 0.0
	for _, name := range models.ScoringOrder(weights) {
		c := weights[name] * features.Get(name)
		breakdown[name] = c
		sum += c
	}
	score := (sum + 1) / 2 * 100
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return models.ScoreResult{Score: NeutralScore, Breakdown: breakdown, Recovered: true}
	}
	return models.ScoreResult{Score: score, Breakdown: breakdown}
}

// Confidence blends the conviction of the contributions with ADX strength.
// The magnitude is divided by the fixed feature count so values compare across calls.
func Confidence(breakdown map[string]float64, features models.FeatureVector) float64 {
	mag := 0.0
	for _, name := range models.ScoringOrder(breakdown) {
		c := breakdown[name]
		if math.IsNaN(c) || math.IsInf(c, 0) {
			continue
		}
		mag += math.Abs(c)
	}
	adxBias := math.Abs(features.Get(models.FeatureADX))
	conf := mag/float64(models.FeatureCount)*0.8 + adxBias*0.2
	return math.Max(0, math.Min(1, conf))
}
