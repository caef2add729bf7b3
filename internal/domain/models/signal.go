package models

// Signal is the discrete trading recommendation derived from a score.
type Signal string

const (
	SignalBuy              Signal = "BUY"
	SignalHold             Signal = "HOLD"
	SignalTightenStop      Signal = "TIGHTEN_STOP"
	SignalExit             Signal = "EXIT"
	SignalVigilanceHighVol Signal = "VIGILANCE_HIGH_VOL"
	SignalExitAnomaly      Signal = "EXIT_ANOMALY"
)

// AllSignals lists every signal in display order.
var AllSignals = []Signal{
	SignalBuy,
	SignalHold,
	SignalTightenStop,
	SignalExit,
	SignalVigilanceHighVol,
	SignalExitAnomaly,
}

// Valid reports whether s is one of the known signals.
func (s Signal) Valid() bool {
	for _, v := range AllSignals {
		if s == v {
			return true
		}
	}
	return false
}

func (s Signal) String() string { return string(s) }
