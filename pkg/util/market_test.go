package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

func TestMarketSessionIsOpen(t *testing.T) {
	s, err := NewMarketSession("Asia/Kolkata", "09:15", "15:30", []string{"2024-08-15"})
	require.NoError(t, err)

	// Monday 2024-08-12
	assert.False(t, s.IsOpen(time.Date(2024, 8, 12, 9, 14, 59, 0, ist)))
	assert.True(t, s.IsOpen(time.Date(2024, 8, 12, 9, 15, 0, 0, ist)))
	assert.True(t, s.IsOpen(time.Date(2024, 8, 12, 15, 29, 0, 0, ist)))
	assert.False(t, s.IsOpen(time.Date(2024, 8, 12, 15, 30, 0, 0, ist)))

	// the same instant expressed in UTC
	assert.True(t, s.IsOpen(time.Date(2024, 8, 12, 4, 0, 0, 0, time.UTC)))

	// Saturday and a holiday
	assert.False(t, s.IsOpen(time.Date(2024, 8, 10, 11, 0, 0, 0, ist)))
	assert.False(t, s.IsOpen(time.Date(2024, 8, 15, 11, 0, 0, 0, ist)))
}

func TestMarketSessionNextOpen(t *testing.T) {
	s, err := NewMarketSession("Asia/Kolkata", "09:15", "15:30", []string{"2024-08-15"})
	require.NoError(t, err)

	// Wednesday evening -> Thursday is a holiday -> Friday open
	next := s.NextOpen(time.Date(2024, 8, 14, 18, 0, 0, 0, ist))
	assert.Equal(t, time.Date(2024, 8, 16, 9, 15, 0, 0, ist).Unix(), next.Unix())

	// Before open on a trading day
	next = s.NextOpen(time.Date(2024, 8, 12, 8, 0, 0, 0, ist))
	assert.Equal(t, time.Date(2024, 8, 12, 9, 15, 0, 0, ist).Unix(), next.Unix())
}

func TestNewMarketSessionValidation(t *testing.T) {
	_, err := NewMarketSession("Asia/Kolkata", "15:30", "09:15", nil)
	assert.Error(t, err)
	_, err = NewMarketSession("Asia/Kolkata", "9am", "15:30", nil)
	assert.Error(t, err)
	_, err = NewMarketSession("Asia/Kolkata", "09:15", "15:30", []string{"15/08/2024"})
	assert.Error(t, err)
	assert.NotNil(t, NSESession())
}
