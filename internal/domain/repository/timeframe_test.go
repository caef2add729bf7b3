package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTimeframe(t *testing.T) {
	assert.Equal(t, TF1m, NormalizeTimeframe("1m"))
	assert.Equal(t, TF1h, NormalizeTimeframe("1h"))
	assert.Equal(t, TF1d, NormalizeTimeframe(""))
	assert.Equal(t, TF1d, NormalizeTimeframe("3m"))
}

func TestTimeframeDuration(t *testing.T) {
	assert.Equal(t, 15*time.Minute, TF15m.Duration())
	assert.Equal(t, 24*time.Hour, Timeframe("bogus").Duration())
}

func TestRangeDuration(t *testing.T) {
	day := 24 * time.Hour
	cases := map[string]time.Duration{
		"7d":  7 * day,
		"2wk": 14 * day,
		"3mo": 90 * day,
		"1y":  365 * day,
		"5x":  0,
		"d":   0,
		"":    0,
	}
	for in, want := range cases {
		assert.Equal(t, want, RangeDuration(in), in)
	}
}
