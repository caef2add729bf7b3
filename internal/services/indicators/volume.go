package indicators

// obv accumulates signed volume starting from the first bar's volume.
func obv(close, volume []float64) []float64 {
	n := len(close)
	dst := nanSlice(n)
	if n == 0 {
		return dst
	}
	dst[0] = volume[0]
	for i := 1; i < n; i++ {
		switch {
		case close[i] > close[i-1]:
			dst[i] = dst[i-1] + volume[i]
		case close[i] < close[i-1]:
			dst[i] = dst[i-1] - volume[i]
		default:
			dst[i] = dst[i-1]
		}
	}
	return dst
}

// cmf is Chaikin money flow. A bar with no range contributes no flow and a
// window with no volume is undefined.
func cmf(high, low, close, volume []float64, period int) []float64 {
	n := len(close)
	mfv := make([]float64, n)
	for i := range close {
		rng := high[i] - low[i]
		if rng == 0 {
			continue
		}
		mfv[i] = ((close[i] - low[i]) - (high[i] - close[i])) / rng * volume[i]
	}
	flow := rollingSum(mfv, period)
	vol := rollingSum(volume, period)
	dst := nanSlice(n)
	for i := range dst {
		if isFinite(flow[i]) && isFinite(vol[i]) && vol[i] != 0 {
			dst[i] = flow[i] / vol[i]
		}
	}
	return dst
}

// returns is the close-over-close fractional change. The first bar is 0.
func returns(close []float64) []float64 {
	dst := nanSlice(len(close))
	if len(close) == 0 {
		return dst
	}
	dst[0] = 0
	for i := 1; i < len(close); i++ {
		if close[i-1] == 0 {
			continue
		}
		dst[i] = close[i]/close[i-1] - 1
	}
	return dst
}
