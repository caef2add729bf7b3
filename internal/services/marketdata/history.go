package marketdata

import (
	"context"
	"fmt"
	"time"

	"AlphaFusion/internal/domain/models"
	"AlphaFusion/internal/domain/repository"
	domsvc "AlphaFusion/internal/domain/service"
	applogger "AlphaFusion/pkg/logger"
	"AlphaFusion/pkg/util"
)

var _ domsvc.HistoryLoader = (*HistoryLoader)(nil)

// LoaderConfig selects the bar interval and lookback for each session state.
type LoaderConfig struct {
	LiveInterval    repository.Timeframe
	LiveRange       string
	HistoryInterval repository.Timeframe
	HistoryRange    string
	// MaxBars keeps only the most recent bars.
	MaxBars int
	// MinBars triggers a fallback fetch of the history interval when the first fetch is shorter.
	MinBars int
}

// DefaultLoaderConfig uses 1m bars over 7d while the market is open and 1d
// bars over 1y otherwise, keeping the latest 700.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		LiveInterval:    repository.TF1m,
		LiveRange:       "7d",
		HistoryInterval: repository.TF1d,
		HistoryRange:    "1y",
		MaxBars:         700,
		MinBars:         200,
	}
}

// HistoryLoader picks interval and lookback by market session and fetches
// the candle series for one analysis.
type HistoryLoader struct {
	fetcher repository.RangeFetcher
	session *util.MarketSession
	cfg     LoaderConfig
	now     func() time.Time
	logger  *applogger.Logger
}

// LoaderOption configures HistoryLoader.
type LoaderOption func(*HistoryLoader)

func WithLoaderConfig(cfg LoaderConfig) LoaderOption {
	return func(h *HistoryLoader) { h.cfg = cfg }
}

func WithLoaderLogger(l *applogger.Logger) LoaderOption {
	return func(h *HistoryLoader) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClock overrides the wall clock used for the session check.
func WithClock(now func() time.Time) LoaderOption {
	return func(h *HistoryLoader) { h.now = now }
}

func NewHistoryLoader(fetcher repository.RangeFetcher, session *util.MarketSession, opts ...LoaderOption) *HistoryLoader {
	if session == nil {
		session = util.NSESession()
	}
	h := &HistoryLoader{
		fetcher: fetcher,
		session: session,
		cfg:     DefaultLoaderConfig(),
		now:     time.Now,
		logger:  applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Load fetches the series for symbol. An empty result is ErrInsufficientData.
func (h *HistoryLoader) Load(ctx context.Context, symbol string) (*models.CandleSeries, error) {
	open := h.session.IsOpen(h.now())

	tf, rng := h.cfg.HistoryInterval, h.cfg.HistoryRange
	if open {
		tf, rng = h.cfg.LiveInterval, h.cfg.LiveRange
	}

	candles, err := h.fetcher.FetchCandles(ctx, symbol, tf, rng)
	if err != nil {
		return nil, err
	}

	if len(candles) < h.cfg.MinBars && (tf != h.cfg.HistoryInterval || rng != h.cfg.HistoryRange) {
		daily, derr := h.fetcher.FetchCandles(ctx, symbol, h.cfg.HistoryInterval, h.cfg.HistoryRange)
		switch {
		case derr != nil:
			h.logger.Debug("history fallback fetch failed", applogger.String("symbol", symbol), applogger.Error(derr))
		case len(daily) > len(candles):
			h.logger.Debug("history fallback to daily bars",
				applogger.String("symbol", symbol),
				applogger.Int("bars", len(candles)),
				applogger.Int("daily_bars", len(daily)),
			)
			candles, tf = daily, h.cfg.HistoryInterval
		}
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("%s: no bars returned: %w", symbol, models.ErrInsufficientData)
	}

	if h.cfg.MaxBars > 0 && len(candles) > h.cfg.MaxBars {
		candles = candles[len(candles)-h.cfg.MaxBars:]
	}

	// Outside the session an intraday series ends with the last, possibly partial, bar.
	if !open && tf != repository.TF1d && len(candles) >= 2 {
		candles = candles[:len(candles)-1]
	}

	return &models.CandleSeries{
		Symbol:     symbol,
		Interval:   string(tf),
		Candles:    candles,
		MarketOpen: open,
	}, nil
}
