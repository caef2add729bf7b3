package util

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	require.True(t, ok)
	assert.Equal(t, s, got.UTC().Format(time.RFC3339))
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	require.True(t, ok)
	assert.Equal(t, ts, got.Unix())
}

func TestParseTimeDateOnlyAndDefault(t *testing.T) {
	got, ok := ParseTime("2024-02-29")
	require.True(t, ok)
	assert.Equal(t, 29, got.Day())

	def := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, def, ParseTimeDefault("yesterday", def))
}

func TestAlignFromTo(t *testing.T) {
	from := time.Date(2024, 5, 6, 10, 17, 42, 0, time.UTC)
	to := from.Add(2 * time.Hour)
	f, tt := AlignFromTo(from, to, "15m")
	assert.Equal(t, time.Date(2024, 5, 6, 10, 15, 0, 0, time.UTC), f)
	assert.Equal(t, time.Date(2024, 5, 6, 12, 15, 0, 0, time.UTC), tt)
}
