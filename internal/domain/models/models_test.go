package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIndicatorPrefersFirstCandidate(t *testing.T) {
	name, ok := ResolveIndicator("SMA_20")
	require.True(t, ok)
	assert.Equal(t, IndSMA20, name)

	name, ok = ResolveIndicator("macdh_12_26_9")
	require.True(t, ok)
	assert.Equal(t, IndMACDHist, name)

	_, ok = ResolveIndicator("VWAP")
	assert.False(t, ok)
}

func TestScoringOrder(t *testing.T) {
	m := map[string]float64{"zeta": 1, FeatureVolZ: 1, "alpha": 1, FeatureSMATrend: 1, FeatureRSI: 1}
	assert.Equal(t, []string{FeatureSMATrend, FeatureRSI, FeatureVolZ, "alpha", "zeta"}, ScoringOrder(m))
}

func TestResolveIndicators(t *testing.T) {
	canonical, unknown := ResolveIndicators([]string{"rsi_14", "MACDh", "RSI", "VWAP"})
	assert.Equal(t, []string{IndRSI, IndMACDHist}, canonical)
	assert.Equal(t, []string{"VWAP"}, unknown)
}

func TestIndicatorRowSnapshotSkipsUndefined(t *testing.T) {
	row := IndicatorRow{Close: 10, SMA20: 9.5, SMA50: math.NaN(), RSI: 55}
	nan := math.NaN()
	row.SMA200, row.EMA12, row.EMA26 = nan, nan, nan

	snap := row.Snapshot()
	assert.Contains(t, snap, IndSMA20)
	assert.NotContains(t, snap, IndSMA50)
	assert.NotContains(t, snap, IndSMA200)
	assert.Equal(t, len(snap), row.DefinedCount())
}

func TestSignalDistributionHasAllSignals(t *testing.T) {
	d := NewSignalDistribution()
	assert.Len(t, d, 6)
	for _, s := range AllSignals {
		assert.True(t, s.Valid())
		assert.Equal(t, 0, d[s])
	}
	assert.False(t, Signal("SELL").Valid())
}

func TestAnalysisViewRounds(t *testing.T) {
	r := AnalysisResult{Symbol: "TCS.NS", Score: 61.23456, StopPrice: 93.9951, Confidence: 0.123456}
	v := r.View()
	assert.Equal(t, 61.23, v.Score)
	assert.Equal(t, 94.0, v.StopPrice)
	assert.Equal(t, 0.1235, v.Confidence)
	assert.Equal(t, 0.0, Round(math.Inf(1), 2))
}

func TestCandleComplete(t *testing.T) {
	assert.True(t, Candle{Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}.Complete())
	assert.False(t, Candle{Open: 1, High: 2, Low: 0.5, Close: math.NaN(), Volume: 10}.Complete())
}
