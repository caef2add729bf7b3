package indicators

import "math"

func trueRange(high, low, close []float64) []float64 {
	tr := nanSlice(len(close))
	for i := 1; i < len(close); i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// atr is Wilder's average true range. The first bar has no true range.
func atr(high, low, close []float64, period int) []float64 {
	return wilder(trueRange(high, low, close), period)
}

// bollinger returns lower, middle and upper bands using the population deviation.
func bollinger(close []float64, period int, mult float64) (lower, mid, upper []float64) {
	n := len(close)
	mid = sma(close, period)
	lower = nanSlice(n)
	upper = nanSlice(n)
	for i := period - 1; i < n; i++ {
		if !isFinite(mid[i]) {
			continue
		}
		ss := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := close[j] - mid[i]
			ss += d * d
		}
		std := math.Sqrt(ss / float64(period))
		lower[i] = mid[i] - mult*std
		upper[i] = mid[i] + mult*std
	}
	return lower, mid, upper
}

// adx returns the average directional index with +DI and -DI. DI values need
// period bars of smoothed movement; ADX needs another period of DX values.
func adx(high, low, close []float64, period int) (adxOut, plusDI, minusDI []float64) {
	n := len(close)
	tr := trueRange(high, low, close)
	plusDM := nanSlice(n)
	minusDM := nanSlice(n)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		plusDM[i], minusDM[i] = 0, 0
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	sTR := wilder(tr, period)
	sPlus := wilder(plusDM, period)
	sMinus := wilder(minusDM, period)

	plusDI = nanSlice(n)
	minusDI = nanSlice(n)
	dx := nanSlice(n)
	for i := range close {
		if !isFinite(sTR[i]) || !isFinite(sPlus[i]) || !isFinite(sMinus[i]) {
			continue
		}
		if sTR[i] > 0 {
			plusDI[i] = 100 * sPlus[i] / sTR[i]
			minusDI[i] = 100 * sMinus[i] / sTR[i]
		} else {
			plusDI[i], minusDI[i] = 0, 0
		}
		sum := plusDI[i] + minusDI[i]
		if sum > 0 {
			dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
		} else {
			dx[i] = 0
		}
	}
	adxOut = wilder(dx, period)
	return adxOut, plusDI, minusDI
}
