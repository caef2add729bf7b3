package features

import (
	"math"

	"AlphaFusion/internal/domain/models"
)

// A rule with undefined inputs reports errUndefined only where an undefined
// input should surface as a degraded feature. Rules whose neutral value is a
// legitimate reading (too little history) return 0 without error.

func smaTrend(last *models.IndicatorRow, _ []models.IndicatorRow) (float64, error) {
	if !allFinite(last.SMA20, last.SMA50, last.SMA200) {
		return 0, nil
	}
	switch {
	case last.SMA20 > last.SMA50 && last.SMA50 > last.SMA200:
		return 1, nil
	case last.SMA20 < last.SMA50 && last.SMA50 < last.SMA200:
		return -1, nil
	}
	return 0, nil
}

func emaTrend(last *models.IndicatorRow, _ []models.IndicatorRow) (float64, error) {
	if !allFinite(last.EMA12, last.EMA26) {
		return 0, nil
	}
	if last.EMA12 > last.EMA26 {
		return 1, nil
	}
	return -1, nil
}

// macdZ is tanh of the latest histogram standardized against its defined history.
func macdZ(last *models.IndicatorRow, rows []models.IndicatorRow) (float64, error) {
	hist := make([]float64, 0, len(rows))
	for i := range rows {
		if finite(rows[i].MACDHist) {
			hist = append(hist, rows[i].MACDHist)
		}
	}
	if len(hist) <= macdMinHistory {
		return 0, nil
	}
	if !finite(last.MACDHist) {
		return 0, errUndefined
	}
	mean, std := meanStd(hist)
	return math.Tanh((last.MACDHist - mean) / (std + 1e-9)), nil
}

func (n *Normalizer) adx(last *models.IndicatorRow, _ []models.IndicatorRow) (float64, error) {
	if !finite(last.ADX) {
		return 0, errUndefined
	}
	return math.Tanh((last.ADX - n.trendThreshold) / 10), nil
}

func rsi(last *models.IndicatorRow, _ []models.IndicatorRow) (float64, error) {
	if !finite(last.RSI) {
		return 0, errUndefined
	}
	return clamp((last.RSI-50)/50, -1, 1), nil
}

func atrRelative(last *models.IndicatorRow, _ []models.IndicatorRow) (float64, error) {
	if !finite(last.ATR) {
		return 0, errUndefined
	}
	if last.ATR <= 0 || last.Close <= 0 {
		return 0, nil
	}
	rel := last.ATR / (last.Close + 1e-9)
	return math.Tanh((atrTargetRatio - rel) * 50), nil
}

// bollPosition is the negated position of close inside the band.
func bollPosition(last *models.IndicatorRow, _ []models.IndicatorRow) (float64, error) {
	if !allFinite(last.BBL, last.BBM, last.BBU) {
		return 0, errUndefined
	}
	width := last.BBU - last.BBL
	if width <= 1e-9 || last.BBM == 0 {
		return 0, nil
	}
	return math.Tanh(-(last.Close - last.BBM) / width), nil
}

// obvVsMean compares OBV with the mean of its last 20 defined values.
func obvVsMean(last *models.IndicatorRow, rows []models.IndicatorRow) (float64, error) {
	obv := make([]float64, 0, len(rows))
	for i := range rows {
		if finite(rows[i].OBV) {
			obv = append(obv, rows[i].OBV)
		}
	}
	if len(obv) <= obvWindow {
		return 0, nil
	}
	if !finite(last.OBV) {
		return 0, errUndefined
	}
	mean, _ := meanStd(obv[len(obv)-obvWindow:])
	if last.OBV > mean {
		return 1, nil
	}
	return -1, nil
}

func cmf(last *models.IndicatorRow, _ []models.IndicatorRow) (float64, error) {
	if !finite(last.CMF) {
		return 0, errUndefined
	}
	return math.Tanh(last.CMF * 5), nil
}

func mfi(last *models.IndicatorRow, _ []models.IndicatorRow) (float64, error) {
	if !finite(last.MFI) {
		return 0, errUndefined
	}
	return clamp((last.MFI-50)/50, -1, 1), nil
}

func stoch(last *models.IndicatorRow, _ []models.IndicatorRow) (float64, error) {
	if !allFinite(last.StochK, last.StochD) {
		return 0, nil
	}
	if last.StochK > last.StochD {
		return 1, nil
	}
	return -1, nil
}

func cci(last *models.IndicatorRow, _ []models.IndicatorRow) (float64, error) {
	if !finite(last.CCI) {
		return 0, errUndefined
	}
	return math.Tanh(last.CCI / 200), nil
}

// volumeSpike takes the sign of the return on bars with unusually high volume.
func (n *Normalizer) volumeSpike(last *models.IndicatorRow, _ []models.IndicatorRow) (float64, error) {
	if !allFinite(last.VolZ, last.Ret) {
		return 0, nil
	}
	if last.VolZ <= n.volumeSpikeZ {
		return 0, nil
	}
	switch {
	case last.Ret > 0:
		return 1, nil
	case last.Ret < 0:
		return -1, nil
	}
	return 0, nil
}

// meanStd returns the mean and sample standard deviation of vs.
func meanStd(vs []float64) (float64, float64) {
	if len(vs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	mean := sum / float64(len(vs))
	if len(vs) < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, v := range vs {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(vs)-1))
}
