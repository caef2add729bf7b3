package usecase

import (
	"context"
	"fmt"
	"time"

	"AlphaFusion/internal/domain/models"
	domrepo "AlphaFusion/internal/domain/repository"
	domsvc "AlphaFusion/internal/domain/service"
	"AlphaFusion/internal/services/scoring"
	applogger "AlphaFusion/pkg/logger"

	"github.com/google/uuid"
)

// Analyzer runs one instrument through load, evaluate, smooth and decide.
type Analyzer struct {
	loader   domsvc.HistoryLoader
	scorer   domsvc.Scorer
	smoother domsvc.Smoother
	metrics  domrepo.Metrics
	logger   *applogger.Logger
	now      func() time.Time
}

// NewAnalyzer creates an Analyzer. smoother may be nil, in which case cycles are not smoothed.
func NewAnalyzer(loader domsvc.HistoryLoader, scorer domsvc.Scorer, smoother domsvc.Smoother, metrics domrepo.Metrics) *Analyzer {
	return &Analyzer{
		loader:   loader,
		scorer:   scorer,
		smoother: smoother,
		metrics:  metrics,
		logger:   applogger.NewNop(),
		now:      time.Now,
	}
}

// SetLogger injects a structured logger.
func (a *Analyzer) SetLogger(l *applogger.Logger) {
	if l != nil {
		a.logger = l
	}
}

// Analyze is an on-demand analysis. It never touches the smoothing state, so
// SmoothedScore equals Score.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (*models.AnalysisResult, error) {
	return a.run(ctx, "", symbol, false)
}

// RunCycle is one poll-cycle analysis; the score is smoothed across cycles
// and the smoothed value drives the signal.
func (a *Analyzer) RunCycle(ctx context.Context, cycleID, symbol string) (*models.AnalysisResult, error) {
	return a.run(ctx, cycleID, symbol, true)
}

func (a *Analyzer) run(ctx context.Context, cycleID, symbol string, smooth bool) (*models.AnalysisResult, error) {
	start := time.Now()
	defer func() { a.metrics.RecordLatency("analyze", time.Since(start).Seconds()) }()

	series, err := a.loader.Load(ctx, symbol)
	if err != nil {
		a.metrics.RecordError("load")
		return nil, fmt.Errorf("load %s: %w", symbol, err)
	}
	a.metrics.RecordLatency("load", time.Since(start).Seconds())

	eval, err := a.scorer.Evaluate(series.Candles)
	if err != nil {
		a.metrics.RecordError("evaluate")
		return nil, fmt.Errorf("evaluate %s: %w", symbol, err)
	}

	raw := eval.Score.Score
	score := raw
	if smooth && a.smoother != nil {
		smoothed, serr := a.smoother.Smooth(ctx, symbol, raw)
		if serr != nil {
			// A broken smoothing store degrades to the raw score for this cycle.
			a.metrics.RecordError("smoothing")
			a.logger.Warn("smoothing failed, using raw score",
				applogger.String("symbol", symbol),
				applogger.Error(serr),
			)
		} else {
			score = smoothed
		}
	}

	decision := a.scorer.Decide(eval, score)

	for _, f := range eval.Features.Degraded {
		a.metrics.RecordDegraded(f)
	}
	if eval.Score.Recovered {
		a.metrics.RecordNonFiniteScore()
		a.logger.Warn("non-finite score recovered to neutral", applogger.String("symbol", symbol))
	}

	dataMode := models.DataModeHistorical
	if series.MarketOpen {
		dataMode = models.DataModeRealtime
	}

	res := &models.AnalysisResult{
		ID:              uuid.NewString(),
		CycleID:         cycleID,
		Symbol:          symbol,
		Score:           raw,
		SmoothedScore:   score,
		Confidence:      eval.Confidence,
		Signal:          decision.Signal,
		StopPrice:       decision.StopPrice,
		Breakdown:       eval.Score.Breakdown,
		Features:        eval.Features.Features,
		Weights:         eval.Weights,
		BarTime:         eval.Latest.Time,
		Close:           eval.Latest.Close,
		Interval:        series.Interval,
		DataMode:        dataMode,
		Interpretation:  scoring.Interpret(score),
		Indicators:      eval.Latest.Snapshot(),
		ValidIndicators: eval.Latest.DefinedCount(),
		Degraded:        eval.Features.Degraded,
		GeneratedAt:     a.now().UTC(),
	}

	a.metrics.RecordScore(symbol, raw, score)
	a.metrics.RecordAnalysis(symbol, decision.Signal)
	a.logger.Debug("analysis complete",
		applogger.String("symbol", symbol),
		applogger.String("cycle_id", cycleID),
		applogger.Float64("score", raw),
		applogger.Float64("smoothed", score),
		applogger.String("signal", decision.Signal.String()),
		applogger.Int("degraded", len(eval.Features.Degraded)),
	)
	return res, nil
}

// FailedResult is the error record emitted for an instrument whose pass failed.
func FailedResult(cycleID, symbol string, err error, at time.Time) *models.AnalysisResult {
	return &models.AnalysisResult{
		ID:          uuid.NewString(),
		CycleID:     cycleID,
		Symbol:      symbol,
		Error:       err.Error(),
		GeneratedAt: at.UTC(),
	}
}
