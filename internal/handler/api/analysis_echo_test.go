package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	models "AlphaFusion/internal/domain/models"
	"AlphaFusion/internal/service/ratelimit"
	"AlphaFusion/internal/services/universe"
	"AlphaFusion/pkg/cache"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	calls int
	err   error
}

func (s *stubAnalyzer) Analyze(_ context.Context, symbol string) (*models.AnalysisResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.AnalysisResult{
		Symbol:        symbol,
		Score:         64.567,
		SmoothedScore: 64.567,
		Signal:        models.SignalBuy,
		StopPrice:     97.123,
		Indicators:    map[string]float64{models.IndRSI: 55.1, models.IndMACDHist: 0.42, models.IndSMA20: 101.5},
		GeneratedAt:   time.Now(),
	}, nil
}

type stubIndex struct{ err error }

func (s stubIndex) AnalyzeIndex(_ context.Context, name string) (*models.IndexSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.IndexSummary{
		Index:              name,
		TotalInList:        2,
		TotalAnalyzed:      2,
		AverageScore:       55.555,
		SignalDistribution: models.NewSignalDistribution(),
	}, nil
}

type stubLatest map[string]*models.AnalysisView

func (s stubLatest) Get(_ context.Context, symbol string) (*models.AnalysisView, error) {
	if v, ok := s[symbol]; ok {
		return v, nil
	}
	return nil, models.ErrNoResultYet
}

type stubStorage struct {
	from, to time.Time
	limit    int
}

func (s *stubStorage) Init(context.Context) error                                 { return nil }
func (s *stubStorage) Store(context.Context, *models.AnalysisResult) error        { return nil }
func (s *stubStorage) StoreBatch(context.Context, []*models.AnalysisResult) error { return nil }
func (s *stubStorage) Query(_ context.Context, symbol string, from, to time.Time, limit int) ([]*models.AnalysisResult, error) {
	s.from, s.to, s.limit = from, to, limit
	return []*models.AnalysisResult{{Symbol: symbol, Score: 50}}, nil
}
func (s *stubStorage) Health(context.Context) error { return nil }
func (s *stubStorage) Close() error                 { return nil }

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func serve(t *testing.T, h interface{ RegisterRoutes(*echo.Echo) }, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestTechnicalNormalizesAndRounds(t *testing.T) {
	an := &stubAnalyzer{}
	h := NewAnalysisEchoHandler(nil, an, stubIndex{}, universe.Default())

	rec, env := serve(t, h, "/api/technical?symbol=reliance")
	require.Equal(t, http.StatusOK, rec.Code)

	var v models.AnalysisView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, "RELIANCE.NS", v.Symbol)
	assert.Equal(t, 64.57, v.Score)
	assert.Equal(t, 97.12, v.StopPrice)
}

func TestTechnicalMissingSymbol(t *testing.T) {
	h := NewAnalysisEchoHandler(nil, &stubAnalyzer{}, stubIndex{}, universe.Default())
	rec, _ := serve(t, h, "/api/technical")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTechnicalErrorMapping(t *testing.T) {
	cases := map[error]int{
		models.ErrInsufficientData: http.StatusUnprocessableEntity,
		models.ErrMissingPriceData: http.StatusUnprocessableEntity,
		models.ErrSymbolNotFound:   http.StatusNotFound,
		errors.New("boom"):         http.StatusInternalServerError,
	}
	for err, code := range cases {
		h := NewAnalysisEchoHandler(nil, &stubAnalyzer{err: err}, stubIndex{}, universe.Default())
		rec, _ := serve(t, h, "/api/technical?symbol=TCS")
		assert.Equal(t, code, rec.Code, err.Error())
	}
}

func TestTechnicalResponseCache(t *testing.T) {
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mc.Close()
	an := &stubAnalyzer{}
	h := NewAnalysisEchoHandler(nil, an, stubIndex{}, universe.Default(), WithResponseCache(mc, time.Minute))

	e := echo.New()
	h.RegisterRoutes(e)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/technical?symbol=TCS", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, an.calls)
}

func TestTechnicalSmoothPrefersLatest(t *testing.T) {
	an := &stubAnalyzer{}
	latest := stubLatest{"TCS.NS": {Symbol: "TCS.NS", SmoothedScore: 42}}
	h := NewAnalysisEchoHandler(nil, an, stubIndex{}, universe.Default(), WithLatest(latest))

	_, env := serve(t, h, "/api/technical?symbol=TCS&smooth=true")
	var v models.AnalysisView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, 42.0, v.SmoothedScore)
	assert.Zero(t, an.calls)

	// no poll result yet: fall back to a fresh analysis
	_, _ = serve(t, h, "/api/technical?symbol=INFY&smooth=true")
	assert.Equal(t, 1, an.calls)
}

func TestTechnicalRateLimited(t *testing.T) {
	h := NewAnalysisEchoHandler(nil, &stubAnalyzer{}, stubIndex{}, universe.Default(),
		WithRateLimiter(ratelimit.New(0.001, 1)))

	e := echo.New()
	h.RegisterRoutes(e)
	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/technical?symbol=TCS", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestIndexEndpoint(t *testing.T) {
	h := NewAnalysisEchoHandler(nil, &stubAnalyzer{}, stubIndex{}, universe.Default())
	rec, env := serve(t, h, "/api/index")
	require.Equal(t, http.StatusOK, rec.Code)

	var v models.IndexSummaryView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, "NIFTY50", v.Index)
	assert.Equal(t, 55.56, v.AverageScore)
	assert.Len(t, v.SignalDistribution, len(models.AllSignals))

	h = NewAnalysisEchoHandler(nil, &stubAnalyzer{}, stubIndex{err: models.ErrUnknownIndex}, universe.Default())
	rec, _ = serve(t, h, "/api/index?name=nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatestEndpoint(t *testing.T) {
	latest := stubLatest{"TCS.NS": {Symbol: "TCS.NS", Score: 61}}
	h := NewAnalysisEchoHandler(nil, &stubAnalyzer{}, stubIndex{}, universe.Default(), WithLatest(latest))

	rec, _ := serve(t, h, "/api/signals/latest?symbol=tcs")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve(t, h, "/api/signals/latest?symbol=INFY")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTechnicalSelectsIndicatorsByAlias(t *testing.T) {
	h := NewAnalysisEchoHandler(nil, &stubAnalyzer{}, stubIndex{}, universe.Default())

	rec, env := serve(t, h, "/api/technical?symbol=TCS&indicators=rsi_14,MACDh_12_26_9,ADX")
	require.Equal(t, http.StatusOK, rec.Code)
	var v models.AnalysisView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, map[string]float64{models.IndRSI: 55.1, models.IndMACDHist: 0.42}, v.Indicators)

	rec, _ = serve(t, h, "/api/technical?symbol=TCS&indicators=RSI,VWAP")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_UNKNOWN_INDICATOR")
}

func TestHistoryEndpoint(t *testing.T) {
	store := &stubStorage{}
	h := NewAnalysisEchoHandler(nil, &stubAnalyzer{}, stubIndex{}, universe.Default(), WithHistory(store))
	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	rec, env := serve(t, h, "/api/signals/history?symbol=TCS&hours=6")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, now.Add(-6*time.Hour), store.from)
	assert.Equal(t, now, store.to)
	assert.Equal(t, 100, store.limit)

	var list struct {
		Rows  []models.AnalysisView `json:"rows"`
		Total int64                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.Total)
	assert.Equal(t, "TCS.NS", list.Rows[0].Symbol)

	rec, _ = serve(t, h, "/api/signals/history?symbol=TCS&hours=1&to=2026-01-02T00:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), store.to)
	assert.Equal(t, time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC), store.from)

	rec, _ = serve(t, h, "/api/signals/history?symbol=TCS&limit=5000")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUniverseEndpoint(t *testing.T) {
	h := NewAnalysisEchoHandler(nil, &stubAnalyzer{}, stubIndex{}, universe.Default())
	rec, env := serve(t, h, "/api/universe")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.UniverseEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Len(t, entries, 3)
}

func TestHealthz(t *testing.T) {
	h := NewHealthHandler(map[string]HealthCheck{
		"redis": func(context.Context) error { return nil },
	})
	rec, _ := serve(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	h = NewHealthHandler(map[string]HealthCheck{
		"clickhouse": func(context.Context) error { return errors.New("down") },
	})
	rec, _ = serve(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
