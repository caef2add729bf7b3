package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaFusion/internal/domain/models"
	"AlphaFusion/internal/services/signals"
)

func trendCandles(n int, step float64) []models.Candle {
	start := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		c := 500 + float64(i)*step + 4*math.Sin(float64(i)/5)
		out[i] = models.Candle{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   c - 0.4,
			High:   c + 2,
			Low:    c - 2,
			Close:  c,
			Volume: 10000 + float64((i*13)%7)*500,
		}
	}
	return out
}

func TestEvaluateEmptySeries(t *testing.T) {
	_, err := New().Evaluate(nil)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestEvaluateFullSeries(t *testing.T) {
	e := New()
	eval, err := e.Evaluate(trendCandles(400, 0.8))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, eval.Score.Score, 0.0)
	assert.LessOrEqual(t, eval.Score.Score, 100.0)
	assert.GreaterOrEqual(t, eval.Confidence, 0.0)
	assert.LessOrEqual(t, eval.Confidence, 1.0)
	assert.InDelta(t, 1.0, eval.Weights.Sum(), 1e-9)
	assert.Equal(t, 1.0, eval.Features.Features[models.FeatureSMATrend], "steady uptrend stacks the SMAs")

	d := e.Decide(eval, eval.Score.Score)
	assert.True(t, d.Signal.Valid())
	assert.Greater(t, d.StopPrice, 0.0)
	assert.LessOrEqual(t, d.StopPrice, eval.Latest.Close*0.995+1e-9)
}

func TestEvaluateFiveBarsIsDegradedNotFatal(t *testing.T) {
	eval, err := New().Evaluate(trendCandles(5, 1))
	require.NoError(t, err)
	assert.Len(t, eval.Features.Features, 13)
	assert.False(t, math.IsNaN(eval.Score.Score))
	assert.NotEmpty(t, eval.Features.Degraded)

	d := New().Decide(eval, eval.Score.Score)
	assert.InDelta(t, eval.Latest.Close-signalMultiple(d.Signal)*eval.Latest.Close*0.01, d.StopPrice, 1e-9)
}

func signalMultiple(s models.Signal) float64 {
	switch s {
	case models.SignalBuy:
		return 3
	case models.SignalHold:
		return 2
	case models.SignalTightenStop, models.SignalVigilanceHighVol:
		return 1
	default:
		return 0.5
	}
}

func TestDecideUsesSuppliedScore(t *testing.T) {
	e := New(WithDecisionParams(signals.DefaultParams()))
	eval := &models.Evaluation{
		Latest:     models.IndicatorRow{Close: 100, ATR: 2},
		Features:   models.FeatureSet{RetZ: math.NaN(), VolZ: math.NaN()},
		Confidence: 0.9,
	}
	assert.Equal(t, models.SignalBuy, e.Decide(eval, 60).Signal)
	assert.Equal(t, models.SignalExit, e.Decide(eval, 29.99).Signal)

	d := e.Decide(eval, 75)
	assert.InDelta(t, 94.0, d.StopPrice, 1e-9)
}

func TestWithWeightsOverride(t *testing.T) {
	w := models.WeightVector{}
	for _, name := range models.FeatureNames {
		w[name] = 1.0 / 13
	}
	e := New(WithWeights(w))
	w[models.FeatureRSI] = 5
	assert.InDelta(t, 1.0/13, e.Weights()[models.FeatureRSI], 1e-12, "engine keeps its own copy")
}
