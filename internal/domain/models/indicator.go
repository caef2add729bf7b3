package models

import (
	"math"
	"strings"
	"time"
)

// IndicatorRow holds the derived indicator values for one bar.
// A value is NaN until its lookback window is filled.
type IndicatorRow struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	SMA20  float64
	SMA50  float64
	SMA200 float64
	EMA12  float64
	EMA26  float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	ADX     float64
	PlusDI  float64
	MinusDI float64

	RSI float64
	ATR float64

	BBL float64
	BBM float64
	BBU float64

	OBV    float64
	CMF    float64
	MFI    float64
	StochK float64
	StochD float64
	CCI    float64

	Ret  float64
	RetZ float64
	VolZ float64
}

// Canonical indicator names.
const (
	IndSMA20      = "SMA20"
	IndSMA50      = "SMA50"
	IndSMA200     = "SMA200"
	IndEMA12      = "EMA12"
	IndEMA26      = "EMA26"
	IndMACD       = "MACD"
	IndMACDSignal = "MACD_SIGNAL"
	IndMACDHist   = "MACD_HIST"
	IndADX        = "ADX"
	IndPlusDI     = "+DI"
	IndMinusDI    = "-DI"
	IndRSI        = "RSI"
	IndATR        = "ATR"
	IndBBL        = "BBL"
	IndBBM        = "BBM"
	IndBBU        = "BBU"
	IndOBV        = "OBV"
	IndCMF        = "CMF"
	IndMFI        = "MFI"
	IndStochK     = "STOCH_K"
	IndStochD     = "STOCH_D"
	IndCCI        = "CCI"
	IndRet        = "RET"
	IndRetZ       = "RET_Z"
	IndVolZ       = "VOL_Z"
)

type indicatorField struct {
	name       string
	candidates []string
	get        func(r *IndicatorRow) float64
}

// indicatorFields is ordered; resolution walks it front to back and the
// first entry whose candidate list contains the requested name wins.
var indicatorFields = []indicatorField{
	{IndSMA20, []string{"SMA_20", "SMA20"}, func(r *IndicatorRow) float64 { return r.SMA20 }},
	{IndSMA50, []string{"SMA_50", "SMA50"}, func(r *IndicatorRow) float64 { return r.SMA50 }},
	{IndSMA200, []string{"SMA_200", "SMA200"}, func(r *IndicatorRow) float64 { return r.SMA200 }},
	{IndEMA12, []string{"EMA_12", "EMA12"}, func(r *IndicatorRow) float64 { return r.EMA12 }},
	{IndEMA26, []string{"EMA_26", "EMA26"}, func(r *IndicatorRow) float64 { return r.EMA26 }},
	{IndMACD, []string{"MACD_12_26_9", "MACD"}, func(r *IndicatorRow) float64 { return r.MACD }},
	{IndMACDSignal, []string{"MACDs_12_26_9", "MACDs", "MACD_SIGNAL"}, func(r *IndicatorRow) float64 { return r.MACDSignal }},
	{IndMACDHist, []string{"MACDh_12_26_9", "MACDh", "MACD_HIST"}, func(r *IndicatorRow) float64 { return r.MACDHist }},
	{IndADX, []string{"ADX_14", "ADX"}, func(r *IndicatorRow) float64 { return r.ADX }},
	{IndPlusDI, []string{"DMP_14", "+DI"}, func(r *IndicatorRow) float64 { return r.PlusDI }},
	{IndMinusDI, []string{"DMN_14", "-DI"}, func(r *IndicatorRow) float64 { return r.MinusDI }},
	{IndRSI, []string{"RSI_14", "RSI"}, func(r *IndicatorRow) float64 { return r.RSI }},
	{IndATR, []string{"ATR_14", "ATRr_14", "ATR"}, func(r *IndicatorRow) float64 { return r.ATR }},
	{IndBBL, []string{"BBL_20_2.0", "BBL"}, func(r *IndicatorRow) float64 { return r.BBL }},
	{IndBBM, []string{"BBM_20_2.0", "BBM"}, func(r *IndicatorRow) float64 { return r.BBM }},
	{IndBBU, []string{"BBU_20_2.0", "BBU"}, func(r *IndicatorRow) float64 { return r.BBU }},
	{IndOBV, []string{"OBV"}, func(r *IndicatorRow) float64 { return r.OBV }},
	{IndCMF, []string{"CMF_20", "CMF"}, func(r *IndicatorRow) float64 { return r.CMF }},
	{IndMFI, []string{"MFI_14", "MFI"}, func(r *IndicatorRow) float64 { return r.MFI }},
	{IndStochK, []string{"STOCHk_14_3_3", "STOCHk", "STOCH_K"}, func(r *IndicatorRow) float64 { return r.StochK }},
	{IndStochD, []string{"STOCHd_14_3_3", "STOCHd", "STOCH_D"}, func(r *IndicatorRow) float64 { return r.StochD }},
	{IndCCI, []string{"CCI_20_0.015", "CCI_20", "CCI"}, func(r *IndicatorRow) float64 { return r.CCI }},
	{IndRet, []string{"RET"}, func(r *IndicatorRow) float64 { return r.Ret }},
	{IndRetZ, []string{"RET_Z"}, func(r *IndicatorRow) float64 { return r.RetZ }},
	{IndVolZ, []string{"VOL_Z"}, func(r *IndicatorRow) float64 { return r.VolZ }},
}

// IndicatorNames returns the canonical indicator names in display order.
func IndicatorNames() []string {
	out := make([]string, len(indicatorFields))
	for i, f := range indicatorFields {
		out[i] = f.name
	}
	return out
}

// ResolveIndicator maps a name (canonical or a known alias, case-insensitive)
// to its canonical indicator name.
func ResolveIndicator(name string) (string, bool) {
	n := strings.TrimSpace(name)
	for _, f := range indicatorFields {
		for _, c := range f.candidates {
			if strings.EqualFold(c, n) {
				return f.name, true
			}
		}
	}
	return "", false
}

// ResolveIndicators resolves a list of names, returning the canonical names in
// input order without duplicates and the names that matched nothing.
func ResolveIndicators(names []string) (canonical, unknown []string) {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		c, ok := ResolveIndicator(n)
		if !ok {
			unknown = append(unknown, n)
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		canonical = append(canonical, c)
	}
	return canonical, unknown
}

// Snapshot returns the defined indicator values keyed by canonical name.
func (r *IndicatorRow) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(indicatorFields))
	for _, f := range indicatorFields {
		v := f.get(r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[f.name] = v
	}
	return out
}

// DefinedCount counts the indicators with a finite value on this row.
func (r *IndicatorRow) DefinedCount() int {
	return len(r.Snapshot())
}
