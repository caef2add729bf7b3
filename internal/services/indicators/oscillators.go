package indicators

import "math"

// macd returns the MACD line, its signal EMA and the histogram.
func macd(close []float64, fast, slow, signal int) (line, sig, hist []float64) {
	f := ema(close, fast)
	s := ema(close, slow)
	line = nanSlice(len(close))
	for i := range close {
		if isFinite(f[i]) && isFinite(s[i]) {
			line[i] = f[i] - s[i]
		}
	}
	sig = ema(line, signal)
	hist = nanSlice(len(close))
	for i := range close {
		if isFinite(line[i]) && isFinite(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return line, sig, hist
}

// rsi uses Wilder averages of gains and losses. No losses reads 100,
// a flat window reads 50.
func rsi(close []float64, period int) []float64 {
	n := len(close)
	gain := nanSlice(n)
	loss := nanSlice(n)
	for i := 1; i < n; i++ {
		d := close[i] - close[i-1]
		gain[i] = math.Max(d, 0)
		loss[i] = math.Max(-d, 0)
	}
	avgGain := wilder(gain, period)
	avgLoss := wilder(loss, period)
	dst := nanSlice(n)
	for i := range dst {
		g, l := avgGain[i], avgLoss[i]
		if !isFinite(g) || !isFinite(l) {
			continue
		}
		switch {
		case l == 0 && g == 0:
			dst[i] = 50
		case l == 0:
			dst[i] = 100
		default:
			dst[i] = 100 - 100/(1+g/l)
		}
	}
	return dst
}

// stochastic returns the smoothed %K and %D. A bar whose high-low range is
// zero over the lookback has no raw %K.
func stochastic(high, low, close []float64, period, smoothK, smoothD int) (k, d []float64) {
	n := len(close)
	raw := nanSlice(n)
	for i := period - 1; i < n; i++ {
		hh, ll := math.Inf(-1), math.Inf(1)
		for j := i - period + 1; j <= i; j++ {
			hh = math.Max(hh, high[j])
			ll = math.Min(ll, low[j])
		}
		rng := hh - ll
		if rng <= 0 || !isFinite(rng) {
			continue
		}
		raw[i] = 100 * (close[i] - ll) / rng
	}
	k = sma(raw, smoothK)
	d = sma(k, smoothD)
	return k, d
}

// cci is the commodity channel index on typical price.
func cci(high, low, close []float64, period int, constant float64) []float64 {
	n := len(close)
	tp := typicalPrice(high, low, close)
	mean := sma(tp, period)
	dst := nanSlice(n)
	for i := period - 1; i < n; i++ {
		if !isFinite(mean[i]) {
			continue
		}
		mad := 0.0
		for j := i - period + 1; j <= i; j++ {
			mad += math.Abs(tp[j] - mean[i])
		}
		mad /= float64(period)
		if mad == 0 {
			continue
		}
		dst[i] = (tp[i] - mean[i]) / (constant * mad)
	}
	return dst
}

// mfi is the money flow index. No negative flow reads 100, no flow at all reads 50.
func mfi(high, low, close, volume []float64, period int) []float64 {
	n := len(close)
	tp := typicalPrice(high, low, close)
	dst := nanSlice(n)
	for i := period; i < n; i++ {
		pos, neg := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			flow := tp[j] * volume[j]
			switch {
			case tp[j] > tp[j-1]:
				pos += flow
			case tp[j] < tp[j-1]:
				neg += flow
			}
		}
		switch {
		case neg == 0 && pos == 0:
			dst[i] = 50
		case neg == 0:
			dst[i] = 100
		default:
			dst[i] = 100 - 100/(1+pos/neg)
		}
	}
	return dst
}

func typicalPrice(high, low, close []float64) []float64 {
	tp := make([]float64, len(close))
	for i := range close {
		tp[i] = (high[i] + low[i] + close[i]) / 3
	}
	return tp
}
