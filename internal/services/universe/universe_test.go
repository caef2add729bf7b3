package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlphaFusion/internal/domain/models"
)

func TestDefaultListSizes(t *testing.T) {
	u := Default()
	for name, size := range map[string]int{Nifty50: 50, NiftyNext50: 45, Sensex30: 30} {
		list, err := u.Resolve(name)
		require.NoError(t, err)
		assert.Len(t, list, size, name)
	}
	assert.Equal(t, []string{Nifty50, NiftyNext50, Sensex30}, u.Names())
}

func TestResolveUnknownIndex(t *testing.T) {
	_, err := Default().Resolve("DOW30")
	assert.ErrorIs(t, err, models.ErrUnknownIndex)
}

func TestResolveReturnsCopy(t *testing.T) {
	u := Default()
	a, _ := u.Resolve("nifty50")
	a[0] = "X"
	b, _ := u.Resolve(Nifty50)
	assert.Equal(t, "RELIANCE.NS", b[0])
}

func TestNormalizeTicker(t *testing.T) {
	u := New(map[string][]string{
		"A": {"TCS.NS"},
		"B": {"TCS.BO", "ONLYBSE.BO"},
	})
	cases := map[string]string{
		" tcs ":       "TCS.NS",
		"onlybse":     "ONLYBSE.BO",
		"aapl":        "AAPL",
		" msft":       "MSFT",
		"infy.ns":     "INFY.NS",
		"reliance.bo": "RELIANCE.BO",
		"500325":      "500325",
		"^NSEI":       "^NSEI",
		"":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, u.NormalizeTicker(in), in)
	}

	d := Default()
	assert.Equal(t, "AAPL", d.NormalizeTicker("aapl"))
	assert.Equal(t, "TCS.NS", d.NormalizeTicker("tcs"))
}

func TestEntries(t *testing.T) {
	entries := Default().Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Nifty50, entries[0].Name)
	assert.Equal(t, 50, entries[0].Size)
	assert.Equal(t, 45, entries[1].Size)
}
