package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaFusion/internal/domain/models"
)

// syntheticCandles builds a wavy uptrend with a non-zero range on every bar.
func syntheticCandles(n int) []models.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		c := 100 + 10*math.Sin(float64(i)/7) + float64(i)*0.1
		out[i] = models.Candle{
			Time:   start.Add(time.Duration(i) * 24 * time.Hour),
			Open:   c - 0.5,
			High:   c + 1 + float64(i%3),
			Low:    c - 1,
			Close:  c,
			Volume: 1000 + float64(i%5)*100,
		}
	}
	return out
}

func flatCandles(n int, price, volume float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Open: price, High: price, Low: price, Close: price, Volume: volume}
	}
	return out
}

func TestComputeEmptySeries(t *testing.T) {
	_, err := Compute(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestComputeWarmupBoundaries(t *testing.T) {
	rows, err := Compute(syntheticCandles(250))
	require.NoError(t, err)
	require.Len(t, rows, 250)

	cases := []struct {
		name  string
		get   func(r models.IndicatorRow) float64
		first int
	}{
		{"SMA20", func(r models.IndicatorRow) float64 { return r.SMA20 }, 19},
		{"SMA200", func(r models.IndicatorRow) float64 { return r.SMA200 }, 199},
		{"EMA26", func(r models.IndicatorRow) float64 { return r.EMA26 }, 25},
		{"MACD", func(r models.IndicatorRow) float64 { return r.MACD }, 25},
		{"MACDSignal", func(r models.IndicatorRow) float64 { return r.MACDSignal }, 33},
		{"ADX", func(r models.IndicatorRow) float64 { return r.ADX }, 27},
		{"PlusDI", func(r models.IndicatorRow) float64 { return r.PlusDI }, 14},
		{"RSI", func(r models.IndicatorRow) float64 { return r.RSI }, 14},
		{"ATR", func(r models.IndicatorRow) float64 { return r.ATR }, 14},
		{"BBU", func(r models.IndicatorRow) float64 { return r.BBU }, 19},
		{"CMF", func(r models.IndicatorRow) float64 { return r.CMF }, 19},
		{"MFI", func(r models.IndicatorRow) float64 { return r.MFI }, 14},
		{"StochK", func(r models.IndicatorRow) float64 { return r.StochK }, 15},
		{"StochD", func(r models.IndicatorRow) float64 { return r.StochD }, 17},
		{"CCI", func(r models.IndicatorRow) float64 { return r.CCI }, 19},
		{"RetZ", func(r models.IndicatorRow) float64 { return r.RetZ }, 9},
		{"VolZ", func(r models.IndicatorRow) float64 { return r.VolZ }, 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, math.IsNaN(tc.get(rows[tc.first-1])), "expected undefined before warm-up")
			assert.False(t, math.IsNaN(tc.get(rows[tc.first])), "expected defined at warm-up")
			assert.False(t, math.IsNaN(tc.get(rows[len(rows)-1])))
		})
	}

	last := rows[len(rows)-1]
	assert.InDelta(t, last.MACD-last.MACDSignal, last.MACDHist, 1e-12)
	assert.True(t, last.BBL < last.BBM && last.BBM < last.BBU)
	assert.GreaterOrEqual(t, last.RSI, 0.0)
	assert.LessOrEqual(t, last.RSI, 100.0)
	assert.GreaterOrEqual(t, last.MFI, 0.0)
	assert.LessOrEqual(t, last.MFI, 100.0)
}

func TestComputeShortSeriesLeavesFieldsUndefined(t *testing.T) {
	rows, err := Compute(syntheticCandles(5))
	require.NoError(t, err)
	require.Len(t, rows, 5)

	last := rows[4]
	assert.True(t, math.IsNaN(last.SMA20))
	assert.True(t, math.IsNaN(last.SMA200))
	assert.True(t, math.IsNaN(last.ADX))
	assert.True(t, math.IsNaN(last.RetZ))
	assert.Equal(t, 0.0, rows[0].Ret)
	assert.False(t, math.IsNaN(last.OBV))
}

func TestSMAAndEMA(t *testing.T) {
	src := []float64{1, 2, 3, 4, 5}

	s := sma(src, 3)
	assert.True(t, math.IsNaN(s[1]))
	assert.Equal(t, []float64{2, 3, 4}, s[2:])

	e := ema(src, 3)
	assert.True(t, math.IsNaN(e[1]))
	assert.InDelta(t, 2.0, e[2], 1e-12)
	assert.InDelta(t, 3.0, e[3], 1e-12)
	assert.InDelta(t, 4.0, e[4], 1e-12)

	w := wilder([]float64{math.NaN(), 2, 4, 6}, 2)
	assert.True(t, math.IsNaN(w[1]))
	assert.InDelta(t, 3.0, w[2], 1e-12)
	assert.InDelta(t, 4.5, w[3], 1e-12)
}

func TestRSIExtremes(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	r := rsi(rising, 14)
	assert.True(t, math.IsNaN(r[13]))
	assert.Equal(t, 100.0, r[14])

	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 50
	}
	assert.Equal(t, 50.0, rsi(flat, 14)[19])
}

func TestOBVStartsFromFirstVolume(t *testing.T) {
	got := obv([]float64{10, 11, 10, 10}, []float64{100, 50, 30, 20})
	assert.Equal(t, []float64{100, 150, 120, 120}, got)
}

func TestReturnsUndefinedAfterZeroClose(t *testing.T) {
	got := returns([]float64{100, 110, 0, 5})
	assert.Equal(t, 0.0, got[0])
	assert.InDelta(t, 0.1, got[1], 1e-12)
	assert.InDelta(t, -1.0, got[2], 1e-12)
	assert.True(t, math.IsNaN(got[3]))
}

func TestRollingZScore(t *testing.T) {
	src := make([]float64, 10)
	for i := range src {
		src[i] = float64(i + 1)
	}
	z := rollingZScore(src, 60, 10)
	assert.True(t, math.IsNaN(z[8]))
	assert.InDelta(t, 1.48630, z[9], 1e-4)

	constant := []float64{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7}
	for _, v := range rollingZScore(constant, 60, 10) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestBollingerUsesPopulationDeviation(t *testing.T) {
	lower, mid, upper := bollinger([]float64{1, 2, 3}, 3, 2)
	std := math.Sqrt(2.0 / 3.0)
	assert.InDelta(t, 2.0, mid[2], 1e-12)
	assert.InDelta(t, 2+2*std, upper[2], 1e-12)
	assert.InDelta(t, 2-2*std, lower[2], 1e-12)
}

func TestFlatSeriesDegenerateIndicators(t *testing.T) {
	rows, err := Compute(flatCandles(40, 10, 500))
	require.NoError(t, err)
	last := rows[len(rows)-1]

	assert.True(t, math.IsNaN(last.StochK), "zero range has no stochastic")
	assert.True(t, math.IsNaN(last.CCI), "zero deviation has no CCI")
	assert.True(t, math.IsNaN(last.VolZ), "constant volume has no z-score")
	assert.Equal(t, 0.0, last.CMF)
	assert.Equal(t, 50.0, last.MFI)
	assert.Equal(t, 50.0, last.RSI)
	assert.Equal(t, 500.0, last.OBV)
	assert.Equal(t, 0.0, last.ADX)
}
