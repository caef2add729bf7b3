package indicators

import "math"

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// firstDefined returns the index of the first finite value, or len(src).
func firstDefined(src []float64) int {
	for i, v := range src {
		if isFinite(v) {
			return i
		}
	}
	return len(src)
}

// sma is a simple moving average. A window containing an undefined value is undefined.
func sma(src []float64, period int) []float64 {
	dst := nanSlice(len(src))
	if period <= 0 {
		return dst
	}
	for i := period - 1; i < len(src); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !isFinite(src[j]) {
				ok = false
				break
			}
			sum += src[j]
		}
		if ok {
			dst[i] = sum / float64(period)
		}
	}
	return dst
}

// smoothed runs a recursive average with the given alpha, seeded with the
// mean of the first period defined values. Leading undefined values are skipped;
// an interior gap yields an undefined output and the recursion resumes after it.
func smoothed(src []float64, period int, alpha float64) []float64 {
	dst := nanSlice(len(src))
	start := firstDefined(src)
	if period <= 0 || len(src)-start < period {
		return dst
	}
	seed := 0.0
	for j := start; j < start+period; j++ {
		if !isFinite(src[j]) {
			return dst
		}
		seed += src[j]
	}
	prev := seed / float64(period)
	dst[start+period-1] = prev
	for i := start + period; i < len(src); i++ {
		if !isFinite(src[i]) {
			continue
		}
		prev = alpha*src[i] + (1-alpha)*prev
		dst[i] = prev
	}
	return dst
}

// ema is an exponential moving average with alpha = 2/(n+1).
func ema(src []float64, period int) []float64 {
	return smoothed(src, period, 2/float64(period+1))
}

// wilder is Wilder's smoothing with alpha = 1/n.
func wilder(src []float64, period int) []float64 {
	return smoothed(src, period, 1/float64(period))
}

// rollingSum sums each full window; windows with undefined values are undefined.
func rollingSum(src []float64, period int) []float64 {
	out := sma(src, period)
	for i, v := range out {
		if isFinite(v) {
			out[i] = v * float64(period)
		}
	}
	return out
}

// rollingZScore standardizes each value against the trailing window ending at it.
// The window needs at least minPeriods defined values; the deviation is the sample
// standard deviation and a zero deviation leaves the z-score undefined.
func rollingZScore(src []float64, window, minPeriods int) []float64 {
	dst := nanSlice(len(src))
	for i := range src {
		if !isFinite(src[i]) {
			continue
		}
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		n := 0
		sum := 0.0
		for j := lo; j <= i; j++ {
			if isFinite(src[j]) {
				n++
				sum += src[j]
			}
		}
		if n < minPeriods || n < 2 {
			continue
		}
		mean := sum / float64(n)
		ss := 0.0
		for j := lo; j <= i; j++ {
			if isFinite(src[j]) {
				d := src[j] - mean
				ss += d * d
			}
		}
		std := math.Sqrt(ss / float64(n-1))
		if std <= zeroStd {
			continue
		}
		dst[i] = (src[i] - mean) / std
	}
	return dst
}

// zeroStd absorbs float noise from averaging identical values.
const zeroStd = 1e-12
