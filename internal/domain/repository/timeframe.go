package repository

import "time"

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1m, TF5m, TF15m, TF1h, TF1d:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1d }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Duration returns the bar length of tf.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF1m:
		return time.Minute
	case TF5m:
		return 5 * time.Minute
	case TF15m:
		return 15 * time.Minute
	case TF1h:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// RangeDuration parses lookback ranges of the form "<n>d", "<n>mo" or "<n>y".
// Unknown forms return 0.
func RangeDuration(rng string) time.Duration {
	var n int
	var unit string
	for i, r := range rng {
		if r < '0' || r > '9' {
			unit = rng[i:]
			break
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return 0
	}
	day := 24 * time.Hour
	switch unit {
	case "d":
		return time.Duration(n) * day
	case "wk":
		return time.Duration(n) * 7 * day
	case "mo":
		return time.Duration(n) * 30 * day
	case "y":
		return time.Duration(n) * 365 * day
	default:
		return 0
	}
}
