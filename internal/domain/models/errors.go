package models

import "errors"

var (
	// ErrInsufficientData is returned when a candle series is empty or unusable.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMissingPriceData is returned when the latest bar has no close.
	ErrMissingPriceData = errors.New("latest bar is missing price data")
	// ErrSymbolNotFound is returned when the market data provider does not know a ticker.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrUnknownIndex is returned for an index name outside the universe.
	ErrUnknownIndex = errors.New("unknown index")
	// ErrNoInstrumentsAnalyzed is returned when an index run produced no successful analysis.
	ErrNoInstrumentsAnalyzed = errors.New("could not analyze any instruments")
	// ErrInvalidWeights is returned when a weight override cannot be normalized.
	ErrInvalidWeights = errors.New("invalid weight vector")
)

// ErrNoResultYet is returned when no poll cycle has produced a result for a symbol.
var ErrNoResultYet = errors.New("no result yet")
