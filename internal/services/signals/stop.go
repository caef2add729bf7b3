package signals

import (
	"math"

	"AlphaFusion/internal/domain/models"
)

const (
	fallbackATRRatio = 0.01
	maxStopRatio     = 0.995
)

// atrMultiple is the stop distance in ATRs for each signal.
var atrMultiple = map[models.Signal]float64{
	models.SignalBuy:              3,
	models.SignalHold:             2,
	models.SignalTightenStop:      1,
	models.SignalVigilanceHighVol: 1,
	models.SignalExit:             0.5,
	models.SignalExitAnomaly:      0.5,
}

// SmartStop places a stop below close by a signal-dependent ATR multiple,
// never above 0.5% under close and never below 0.
func SmartStop(close, atr float64, signal models.Signal) float64 {
	if !(close > 0) || math.IsInf(close, 0) {
		return 0
	}
	if math.IsNaN(atr) || math.IsInf(atr, 0) || atr <= 0 {
		atr = close * fallbackATRRatio
	}
	mult, ok := atrMultiple[signal]
	if !ok {
		mult = atrMultiple[models.SignalExit]
	}
	stop := math.Min(close-mult*atr, close*maxStopRatio)
	return math.Max(0, stop)
}
