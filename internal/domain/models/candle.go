package models

import (
	"math"
	"time"
)

// Candle represents one OHLCV bar. Series are ordered by Time ascending.
type Candle struct {
	Time   time.Time `json:"time"`
	Symbol string    `json:"symbol,omitempty"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Complete reports whether every OHLCV field is a finite number.
func (c Candle) Complete() bool {
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CandleSeries is a candle slice with the interval it was sampled at.
type CandleSeries struct {
	Symbol   string
	Interval string
	Candles  []Candle
	// MarketOpen records the session state when the series was loaded.
	MarketOpen bool
}

// Len returns the number of bars.
func (s *CandleSeries) Len() int { return len(s.Candles) }

// Last returns the latest bar.
func (s *CandleSeries) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}
