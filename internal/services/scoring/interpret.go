package scoring

// Score bands for human-readable interpretation.
const (
	InterpretStrongBuy    = "Strong Technical Buy"
	InterpretModerateBuy  = "Moderate Technical Buy"
	InterpretHold         = "Hold"
	InterpretModerateSell = "Moderate Technical Sell/Avoid"
	InterpretStrongSell   = "Strong Technical Sell/Avoid"
)

// Interpret maps a score to its band. Bands are checked from the extremes inward.
func Interpret(score float64) string {
	switch {
	case score > 70:
		return InterpretStrongBuy
	case score > 60:
		return InterpretModerateBuy
	case score < 30:
		return InterpretStrongSell
	case score < 40:
		return InterpretModerateSell
	default:
		return InterpretHold
	}
}
