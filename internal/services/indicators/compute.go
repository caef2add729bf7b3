// Package indicators derives the fixed indicator set used for scoring from an
// OHLCV candle series. Values inside a lookback window are NaN, never zero.
package indicators

import (
	"fmt"

	"AlphaFusion/internal/domain/models"
)

// Lookback settings of the indicator set.
const (
	SMAShort     = 20
	SMAMid       = 50
	SMALong      = 200
	EMAFast      = 12
	EMASlow      = 26
	MACDSignal   = 9
	ADXPeriod    = 14
	RSIPeriod    = 14
	ATRPeriod    = 14
	BBPeriod     = 20
	BBStdDev     = 2.0
	CMFPeriod    = 20
	MFIPeriod    = 14
	StochPeriod  = 14
	StochSmoothK = 3
	StochSmoothD = 3
	CCIPeriod    = 20
	CCIConstant  = 0.015
	ZWindow      = 60
	ZMinPeriods  = 10
	ReliableBars = SMALong
)

// Compute returns one IndicatorRow per candle. Short histories leave the
// affected fields NaN; only an empty series is an error.
func Compute(candles []models.Candle) ([]models.IndicatorRow, error) {
	n := len(candles)
	if n == 0 {
		return nil, fmt.Errorf("compute indicators: %w", models.ErrInsufficientData)
	}

	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, c := range candles {
		open[i], high[i], low[i], closes[i], volume[i] = c.Open, c.High, c.Low, c.Close, c.Volume
	}

	sma20 := sma(closes, SMAShort)
	sma50 := sma(closes, SMAMid)
	sma200 := sma(closes, SMALong)
	ema12 := ema(closes, EMAFast)
	ema26 := ema(closes, EMASlow)
	macdLine, macdSig, macdHist := macd(closes, EMAFast, EMASlow, MACDSignal)
	adxV, plusDI, minusDI := adx(high, low, closes, ADXPeriod)
	rsiV := rsi(closes, RSIPeriod)
	atrV := atr(high, low, closes, ATRPeriod)
	bbl, bbm, bbu := bollinger(closes, BBPeriod, BBStdDev)
	obvV := obv(closes, volume)
	cmfV := cmf(high, low, closes, volume, CMFPeriod)
	mfiV := mfi(high, low, closes, volume, MFIPeriod)
	stochK, stochD := stochastic(high, low, closes, StochPeriod, StochSmoothK, StochSmoothD)
	cciV := cci(high, low, closes, CCIPeriod, CCIConstant)
	ret := returns(closes)
	retZ := rollingZScore(ret, ZWindow, ZMinPeriods)
	volZ := rollingZScore(volume, ZWindow, ZMinPeriods)

	rows := make([]models.IndicatorRow, n)
	for i, c := range candles {
		rows[i] = models.IndicatorRow{
			Time:       c.Time,
			Open:       open[i],
			High:       high[i],
			Low:        low[i],
			Close:      closes[i],
			Volume:     volume[i],
			SMA20:      sma20[i],
			SMA50:      sma50[i],
			SMA200:     sma200[i],
			EMA12:      ema12[i],
			EMA26:      ema26[i],
			MACD:       macdLine[i],
			MACDSignal: macdSig[i],
			MACDHist:   macdHist[i],
			ADX:        adxV[i],
			PlusDI:     plusDI[i],
			MinusDI:    minusDI[i],
			RSI:        rsiV[i],
			ATR:        atrV[i],
			BBL:        bbl[i],
			BBM:        bbm[i],
			BBU:        bbu[i],
			OBV:        obvV[i],
			CMF:        cmfV[i],
			MFI:        mfiV[i],
			StochK:     stochK[i],
			StochD:     stochD[i],
			CCI:        cciV[i],
			Ret:        ret[i],
			RetZ:       retZ[i],
			VolZ:       volZ[i],
		}
	}
	return rows, nil
}
