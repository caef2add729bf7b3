// Package signals maps scores to discrete trading signals and protective stops.
package signals

import (
	"math"

	"AlphaFusion/internal/domain/models"
)

// Params holds the decision thresholds.
type Params struct {
	ExitBelow       float64
	TightenBelow    float64
	HoldBelow       float64
	AnomalyZ        float64
	ConfidenceFloor float64
}

// DefaultParams returns the empirical decision thresholds.
func DefaultParams() Params {
	return Params{
		ExitBelow:       30,
		TightenBelow:    45,
		HoldBelow:       60,
		AnomalyZ:        3.0,
		ConfidenceFloor: 0.35,
	}
}

// Tier maps a score to its base signal using half-open bands.
func Tier(score float64, p Params) models.Signal {
	switch {
	case score < p.ExitBelow:
		return models.SignalExit
	case score < p.TightenBelow:
		return models.SignalTightenStop
	case score < p.HoldBelow:
		return models.SignalHold
	default:
		return models.SignalBuy
	}
}

// Anomalous reports whether either z-score breaches the threshold.
// An undefined z-score is never anomalous.
func Anomalous(retZ, volZ float64, p Params) bool {
	return breach(retZ, p.AnomalyZ) || breach(volZ, p.AnomalyZ)
}

func breach(z, limit float64) bool {
	if math.IsNaN(z) {
		return false
	}
	return math.Abs(z) > limit
}

// Recommend applies the score tier, the anomaly override and then the confidence gate.
func Recommend(score, confidence, retZ, volZ float64, p Params) models.Signal {
	s := Tier(score, p)
	if Anomalous(retZ, volZ, p) {
		switch s {
		case models.SignalBuy:
			s = models.SignalTightenStop
		case models.SignalHold:
			s = models.SignalVigilanceHighVol
		case models.SignalTightenStop, models.SignalExit:
			s = models.SignalExitAnomaly
		}
	}
	if confidence < p.ConfidenceFloor && s == models.SignalBuy {
		s = models.SignalHold
	}
	return s
}
