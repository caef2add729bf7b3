package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaFusion/internal/domain/models"
	"AlphaFusion/internal/services/indicators"
)

func candles(n int) []models.Candle {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		c := 200 + 15*math.Sin(float64(i)/9) + float64(i)*0.2
		out[i] = models.Candle{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c - 0.3,
			High:   c + 1.5,
			Low:    c - 1.2,
			Close:  c,
			Volume: 5000 + float64((i*37)%11)*250,
		}
	}
	return out
}

func rowsFor(t *testing.T, n int) []models.IndicatorRow {
	t.Helper()
	rows, err := indicators.Compute(candles(n))
	require.NoError(t, err)
	return rows
}

func nanRow(close float64) models.IndicatorRow {
	nan := math.NaN()
	return models.IndicatorRow{
		Close: close, SMA20: nan, SMA50: nan, SMA200: nan, EMA12: nan, EMA26: nan,
		MACD: nan, MACDSignal: nan, MACDHist: nan, ADX: nan, PlusDI: nan, MinusDI: nan,
		RSI: nan, ATR: nan, BBL: nan, BBM: nan, BBU: nan, OBV: nan, CMF: nan, MFI: nan,
		StochK: nan, StochD: nan, CCI: nan, Ret: nan, RetZ: nan, VolZ: nan,
	}
}

func TestNormalizeEmptyRows(t *testing.T) {
	_, err := NewNormalizer().Normalize(nil)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestNormalizeMissingClose(t *testing.T) {
	rows := rowsFor(t, 30)
	rows[len(rows)-1].Close = math.NaN()
	_, err := NewNormalizer().Normalize(rows)
	assert.ErrorIs(t, err, models.ErrMissingPriceData)
}

func TestNormalizeFullHistoryIsBoundedAndComplete(t *testing.T) {
	set, err := NewNormalizer().Normalize(rowsFor(t, 300))
	require.NoError(t, err)
	require.Len(t, set.Features, len(models.FeatureNames))
	for _, name := range models.FeatureNames {
		v, ok := set.Features[name]
		require.True(t, ok, name)
		assert.GreaterOrEqual(t, v, -1.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}
	assert.Empty(t, set.Degraded)
	assert.False(t, math.IsNaN(set.RetZ))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	rows := rowsFor(t, 260)
	n := NewNormalizer()
	a, err := n.Normalize(rows)
	require.NoError(t, err)
	b, err := n.Normalize(rows)
	require.NoError(t, err)
	assert.Equal(t, a.Features, b.Features)
	assert.Equal(t, a.Degraded, b.Degraded)
}

func TestNormalizeFiveBarsDegradesToNeutral(t *testing.T) {
	set, err := NewNormalizer().Normalize(rowsFor(t, 5))
	require.NoError(t, err)
	require.Len(t, set.Features, len(models.FeatureNames))
	for _, name := range models.FeatureNames {
		assert.False(t, math.IsNaN(set.Features[name]), name)
	}
	for _, name := range []string{
		models.FeatureSMATrend, models.FeatureEMATrend, models.FeatureMACD, models.FeatureADX,
		models.FeatureRSI, models.FeatureATR, models.FeatureBOLL, models.FeatureOBV,
		models.FeatureCMF, models.FeatureMFI, models.FeatureSTOCH, models.FeatureCCI,
	} {
		assert.Equal(t, 0.0, set.Features[name], name)
	}
	assert.Contains(t, set.Degraded, models.FeatureADX)
	assert.Contains(t, set.Degraded, models.FeatureRSI)
	assert.NotContains(t, set.Degraded, models.FeatureSMATrend)
	assert.True(t, math.IsNaN(set.VolZ))
}

func TestRuleFormulas(t *testing.T) {
	row := nanRow(100)
	row.SMA20, row.SMA50, row.SMA200 = 110, 105, 100
	row.EMA12, row.EMA26 = 99, 101
	row.ADX = 35
	row.RSI = 80
	row.ATR = 2
	row.BBL, row.BBM, row.BBU = 90, 100, 110
	row.CMF = 0.1
	row.MFI = 10
	row.StochK, row.StochD = 50, 50
	row.CCI = 100
	row.VolZ, row.Ret = 2, -0.01

	set, err := NewNormalizer().Normalize([]models.IndicatorRow{row})
	require.NoError(t, err)
	f := set.Features
	assert.Equal(t, 1.0, f[models.FeatureSMATrend])
	assert.Equal(t, -1.0, f[models.FeatureEMATrend])
	assert.InDelta(t, math.Tanh(1), f[models.FeatureADX], 1e-12)
	assert.InDelta(t, 0.6, f[models.FeatureRSI], 1e-12)
	assert.InDelta(t, 0.0, f[models.FeatureATR], 1e-6)
	assert.Equal(t, 0.0, f[models.FeatureBOLL])
	assert.InDelta(t, math.Tanh(0.5), f[models.FeatureCMF], 1e-12)
	assert.InDelta(t, -0.8, f[models.FeatureMFI], 1e-12)
	assert.Equal(t, -1.0, f[models.FeatureSTOCH], "equal K and D is not bullish")
	assert.InDelta(t, math.Tanh(0.5), f[models.FeatureCCI], 1e-12)
	assert.Equal(t, -1.0, f[models.FeatureVolZ])
	assert.Equal(t, 0.0, f[models.FeatureMACD])
	assert.Equal(t, 0.0, f[models.FeatureOBV])
}

func TestTrendThresholdOption(t *testing.T) {
	row := nanRow(100)
	row.ADX = 30
	set, err := NewNormalizer(WithTrendThreshold(30)).Normalize([]models.IndicatorRow{row})
	require.NoError(t, err)
	assert.Equal(t, 0.0, set.Features[models.FeatureADX])
}

func TestComputeOrDefaultRecoversPanics(t *testing.T) {
	boom := func(*models.IndicatorRow, []models.IndicatorRow) (float64, error) {
		var m map[string]float64
		m["x"] = 1
		return 1, nil
	}
	row := nanRow(1)
	v, err := computeOrDefault(boom, &row, nil)
	assert.Error(t, err)
	assert.Equal(t, 0.0, v)

	inf := func(*models.IndicatorRow, []models.IndicatorRow) (float64, error) { return math.Inf(1), nil }
	v, err = computeOrDefault(inf, &row, nil)
	assert.Error(t, err)
	assert.Equal(t, 0.0, v)
}

func TestOBVNeedsMoreThanWindow(t *testing.T) {
	rows := make([]models.IndicatorRow, 21)
	for i := range rows {
		rows[i] = nanRow(10)
		rows[i].OBV = float64(i)
	}
	set, err := NewNormalizer().Normalize(rows[:20])
	require.NoError(t, err)
	assert.Equal(t, 0.0, set.Features[models.FeatureOBV])

	set, err = NewNormalizer().Normalize(rows)
	require.NoError(t, err)
	assert.Equal(t, 1.0, set.Features[models.FeatureOBV])
}
