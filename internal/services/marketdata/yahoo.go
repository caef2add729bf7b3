package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"AlphaFusion/internal/domain/models"
	"AlphaFusion/internal/domain/repository"
	xhttp "AlphaFusion/pkg/http"
	applogger "AlphaFusion/pkg/logger"
)

var _ repository.RangeFetcher = (*YahooClient)(nil)

// YahooClient reads OHLCV bars from the Yahoo Finance chart API.
type YahooClient struct {
	base    *HTTPServiceBase
	retries int
	logger  *applogger.Logger
}

// YahooOption configures YahooClient.
type YahooOption func(*yahooConfig)

type yahooConfig struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	retries   int
	client    *xhttp.Client
	logger    *applogger.Logger
}

// WithBaseURL overrides the API root, e.g. for tests.
func WithBaseURL(u string) YahooOption {
	return func(c *yahooConfig) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithUserAgent(ua string) YahooOption {
	return func(c *yahooConfig) { c.userAgent = ua }
}

func WithTimeout(d time.Duration) YahooOption {
	return func(c *yahooConfig) { c.timeout = d }
}

// WithRetries sets how many attempts a fetch makes on transient failures.
func WithRetries(n int) YahooOption {
	return func(c *yahooConfig) { c.retries = n }
}

// WithClient supplies a preconfigured HTTP client.
func WithClient(cl *xhttp.Client) YahooOption {
	return func(c *yahooConfig) { c.client = cl }
}

func WithLogger(l *applogger.Logger) YahooOption {
	return func(c *yahooConfig) { c.logger = l }
}

// NewYahooClient creates a chart API client.
func NewYahooClient(opts ...YahooOption) *YahooClient {
	cfg := &yahooConfig{
		baseURL:   "https://query1.finance.yahoo.com",
		userAgent: "Mozilla/5.0 (compatible; alphafusion/1.0)",
		timeout:   10 * time.Second,
		retries:   3,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = applogger.NewNop()
	}
	if cfg.client == nil {
		cfg.client = xhttp.NewClient(
			xhttp.WithTimeout(cfg.timeout),
			xhttp.WithUserAgent(cfg.userAgent),
		)
	}
	base := NewHTTPServiceBase(cfg.baseURL, cfg.client)
	base.SetLogger(cfg.logger)
	return &YahooClient{base: base, retries: cfg.retries, logger: cfg.logger}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol       string `json:"symbol"`
		DataGranular string `json:"dataGranularity"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// FetchCandles returns the bars for symbol at tf over the lookback rng
// ("7d", "1y", ...), oldest first. Bars with any missing OHLCV value are dropped.
func (y *YahooClient) FetchCandles(ctx context.Context, symbol string, tf repository.Timeframe, rng string) ([]models.Candle, error) {
	start := time.Now()
	var resp chartResponse
	err := y.base.GetJSONWithRetry(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), map[string][]string{
		"interval":       {string(tf)},
		"range":          {rng},
		"includePrePost": {"false"},
	}, &resp, y.retries)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", symbol, models.ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("fetch %s %s/%s: %w", symbol, tf, rng, err)
	}
	if e := resp.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, fmt.Errorf("%s: %s: %w", symbol, e.Description, models.ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("fetch %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	candles, dropped := toCandles(symbol, resp.Chart.Result[0])
	y.logger.Debug("yahoo chart fetched",
		applogger.String("symbol", symbol),
		applogger.String("interval", string(tf)),
		applogger.String("range", rng),
		applogger.Int("bars", len(candles)),
		applogger.Int("dropped", dropped),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return candles, nil
}

func toCandles(symbol string, r chartResult) ([]models.Candle, int) {
	if len(r.Indicators.Quote) == 0 {
		return nil, len(r.Timestamp)
	}
	q := r.Indicators.Quote[0]
	at := func(s []*float64, i int) (float64, bool) {
		if i >= len(s) || s[i] == nil {
			return 0, false
		}
		return *s[i], true
	}

	out := make([]models.Candle, 0, len(r.Timestamp))
	dropped := 0
	for i, ts := range r.Timestamp {
		o, ok1 := at(q.Open, i)
		h, ok2 := at(q.High, i)
		l, ok3 := at(q.Low, i)
		c, ok4 := at(q.Close, i)
		v, ok5 := at(q.Volume, i)
		candle := models.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Symbol: symbol,
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		}
		if !(ok1 && ok2 && ok3 && ok4 && ok5) || !candle.Complete() {
			dropped++
			continue
		}
		out = append(out, candle)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return dedupeBars(out), dropped
}

// dedupeBars keeps the last of each run of equal timestamps in sorted bars.
// The stable sort preserves feed order, so the later revision of a bar wins.
func dedupeBars(bars []models.Candle) []models.Candle {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:0]
	for i := range bars {
		if i+1 < len(bars) && bars[i+1].Time.Equal(bars[i].Time) {
			continue
		}
		out = append(out, bars[i])
	}
	return out
}
