package api

import (
	"context"
	"errors"
	"strings"
	"time"

	models "AlphaFusion/internal/domain/models"
	domrepo "AlphaFusion/internal/domain/repository"
	"AlphaFusion/internal/service/metrics"
	"AlphaFusion/internal/service/ratelimit"
	"AlphaFusion/pkg/cache"
	xhttp "AlphaFusion/pkg/http"
	xlogger "AlphaFusion/pkg/logger"
	"AlphaFusion/pkg/util"

	"github.com/labstack/echo/v4"
)

// Analyzer runs a one-shot analysis.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string) (*models.AnalysisResult, error)
}

// IndexAnalyzer summarizes an index.
type IndexAnalyzer interface {
	AnalyzeIndex(ctx context.Context, name string) (*models.IndexSummary, error)
}

// LatestReader returns the last poll-cycle result for a symbol.
type LatestReader interface {
	Get(ctx context.Context, symbol string) (*models.AnalysisView, error)
}

// UniverseLister lists indices and normalizes user tickers.
type UniverseLister interface {
	Entries() []models.UniverseEntry
	NormalizeTicker(input string) string
}

// AnalysisEchoHandler serves the analysis API.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	analyzer Analyzer
	index    IndexAnalyzer
	universe UniverseLister

	latest   LatestReader
	history  domrepo.Storage
	cache    cache.Service
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
	now      func() time.Time
}

type HandlerOption func(*AnalysisEchoHandler)

// WithLatest enables /api/signals/latest and smooth=true lookups.
func WithLatest(l LatestReader) HandlerOption {
	return func(h *AnalysisEchoHandler) { h.latest = l }
}

// WithHistory enables /api/signals/history backed by result storage.
func WithHistory(s domrepo.Storage) HandlerOption {
	return func(h *AnalysisEchoHandler) { h.history = s }
}

// WithResponseCache caches /api/technical responses for ttl.
func WithResponseCache(c cache.Service, ttl time.Duration) HandlerOption {
	return func(h *AnalysisEchoHandler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithRateLimiter limits the analysis endpoints per client.
func WithRateLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *AnalysisEchoHandler) { h.limiter = l }
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, analyzer Analyzer, index IndexAnalyzer, universe UniverseLister, opts ...HandlerOption) *AnalysisEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.NewNop()
	}
	h := &AnalysisEchoHandler{
		logger:   logger,
		analyzer: analyzer,
		index:    index,
		universe: universe,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")

	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, h.limiter.Middleware())
	}
	g.GET("/technical", h.Technical, mw...)
	g.GET("/index", h.Index, mw...)
	g.GET("/universe", h.Universe)
	g.GET("/signals/latest", h.Latest)
	g.GET("/signals/history", h.History)
}

func observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Technical analyzes one symbol. smooth=true prefers the latest smoothed poll result.
func (h *AnalysisEchoHandler) Technical(c echo.Context) error {
	const endpoint = "technical"
	start := time.Now()
	defer observe(endpoint, start)

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	selected, verr := parseIndicators(req.Indicators)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	symbol := h.universe.NormalizeTicker(req.Symbol)

	if req.Smooth && h.latest != nil {
		if v, err := h.latest.Get(ctx, symbol); err == nil {
			return xhttp.SuccessResponse(c, withIndicators(*v, selected))
		}
	}

	key := cache.GenerateKeyWithParams("technical", symbol)
	if h.cache != nil {
		var cached models.AnalysisView
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			metrics.APICacheHits.WithLabelValues(endpoint).Inc()
			c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
			return xhttp.SuccessResponse(c, withIndicators(cached, selected))
		}
	}

	res, err := h.analyzer.Analyze(ctx, symbol)
	if err != nil {
		return h.fail(c, endpoint, symbol, err)
	}
	view := res.View()
	if h.cache != nil {
		if err := h.cache.Set(ctx, key, view, h.cacheTTL); err != nil {
			h.logger.Warn("response cache set failed", xlogger.String("key", key), xlogger.Error(err))
		}
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, withIndicators(view, selected))
}

// parseIndicators resolves the indicators query. Nil means the full snapshot.
func parseIndicators(raw string) ([]string, []xhttp.ValidationError) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var names []string
	for _, n := range strings.Split(raw, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	canonical, unknown := models.ResolveIndicators(names)
	if len(unknown) > 0 {
		return nil, []xhttp.ValidationError{{
			Code:    "ERR_UNKNOWN_INDICATOR",
			Field:   "indicators",
			Message: "unknown indicators: " + strings.Join(unknown, ", "),
			Params:  map[string]interface{}{"known": models.IndicatorNames()},
		}}
	}
	return canonical, nil
}

func withIndicators(v models.AnalysisView, selected []string) models.AnalysisView {
	if selected == nil {
		return v
	}
	out := make(map[string]float64, len(selected))
	for _, name := range selected {
		if val, ok := v.Indicators[name]; ok {
			out[name] = val
		}
	}
	v.Indicators = out
	return v
}

func (h *AnalysisEchoHandler) Index(c echo.Context) error {
	const endpoint = "index"
	start := time.Now()
	defer observe(endpoint, start)

	req := &models.IndexRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	name := strings.ToUpper(strings.TrimSpace(req.Name))

	sum, err := h.index.AnalyzeIndex(c.Request().Context(), name)
	if err != nil {
		return h.fail(c, endpoint, name, err)
	}
	return xhttp.SuccessResponse(c, sum.View())
}

func (h *AnalysisEchoHandler) Universe(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.universe.Entries())
}

func (h *AnalysisEchoHandler) Latest(c echo.Context) error {
	const endpoint = "latest"
	start := time.Now()
	defer observe(endpoint, start)

	if h.latest == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("poller disabled"))
	}
	req := &models.LatestSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := h.universe.NormalizeTicker(req.Symbol)

	v, err := h.latest.Get(c.Request().Context(), symbol)
	if err != nil {
		return h.fail(c, endpoint, symbol, err)
	}
	return xhttp.SuccessResponse(c, v)
}

func (h *AnalysisEchoHandler) History(c echo.Context) error {
	const endpoint = "history"
	start := time.Now()
	defer observe(endpoint, start)

	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("result storage disabled"))
	}
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := h.universe.NormalizeTicker(req.Symbol)
	to := util.ParseTimeDefault(req.To, h.now()).UTC()
	from := to.Add(-time.Duration(req.Hours) * time.Hour)

	rows, err := h.history.Query(c.Request().Context(), symbol, from, to, req.Limit)
	if err != nil {
		return h.fail(c, endpoint, symbol, err)
	}
	views := make([]models.AnalysisView, 0, len(rows))
	for _, r := range rows {
		views = append(views, r.View())
	}
	return xhttp.ListResponse(c, views, int64(len(views)))
}

func (h *AnalysisEchoHandler) fail(c echo.Context, endpoint, subject string, err error) error {
	appErr := mapError(err)
	if appErr.Status >= 500 {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error(endpoint+" usecase error", xlogger.String("subject", subject), xlogger.Error(err))
	} else {
		h.logger.Debug(endpoint+" rejected", xlogger.String("subject", subject), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// mapError turns domain sentinels into API errors.
func mapError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_DATA", err.Error()).WithError(err)
	case errors.Is(err, models.ErrMissingPriceData):
		return xhttp.UnprocessableError("ERR_MISSING_PRICE_DATA", err.Error()).WithError(err)
	case errors.Is(err, models.ErrSymbolNotFound),
		errors.Is(err, models.ErrUnknownIndex),
		errors.Is(err, models.ErrNoResultYet):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrNoInstrumentsAnalyzed):
		return xhttp.UnprocessableError("ERR_NO_INSTRUMENTS", err.Error()).WithError(err)
	default:
		return xhttp.InternalError("analysis failed").WithError(err)
	}
}
