package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"AlphaFusion/internal/domain/models"
	domsvc "AlphaFusion/internal/domain/service"
	"AlphaFusion/internal/services/scoring"
	applogger "AlphaFusion/pkg/logger"
)

// SymbolAnalyzer is the part of Analyzer the index fan-out needs.
type SymbolAnalyzer interface {
	Analyze(ctx context.Context, symbol string) (*models.AnalysisResult, error)
}

// IndexAnalyzer analyzes every constituent of an index and summarizes the run.
type IndexAnalyzer struct {
	analyzer    SymbolAnalyzer
	universe    domsvc.Universe
	concurrency int
	logger      *applogger.Logger
	now         func() time.Time
}

func NewIndexAnalyzer(analyzer SymbolAnalyzer, universe domsvc.Universe, concurrency int) *IndexAnalyzer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &IndexAnalyzer{
		analyzer:    analyzer,
		universe:    universe,
		concurrency: concurrency,
		logger:      applogger.NewNop(),
		now:         time.Now,
	}
}

// SetLogger injects a structured logger.
func (ia *IndexAnalyzer) SetLogger(l *applogger.Logger) {
	if l != nil {
		ia.logger = l
	}
}

// AnalyzeIndex runs the one-shot analysis for each constituent with bounded
// concurrency. Per-symbol failures are collected in Errors; the run fails
// with ErrNoInstrumentsAnalyzed only when nothing succeeded.
func (ia *IndexAnalyzer) AnalyzeIndex(ctx context.Context, name string) (*models.IndexSummary, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	symbols, err := ia.universe.Resolve(name)
	if err != nil {
		return nil, err
	}

	results := make([]*models.AnalysisResult, len(symbols))
	errs := make([]error, len(symbols))

	sem := make(chan struct{}, ia.concurrency)
	var wg sync.WaitGroup
	for i, sym := range symbols {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			errs[i] = ctx.Err()
			continue
		}
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = ia.analyzer.Analyze(ctx, sym)
		}(i, sym)
	}
	wg.Wait()

	summary := &models.IndexSummary{
		Index:              name,
		TotalInList:        len(symbols),
		SignalDistribution: models.NewSignalDistribution(),
		Errors:             map[string]string{},
		GeneratedAt:        ia.now().UTC(),
	}
	total := 0.0
	for i, sym := range symbols {
		if errs[i] != nil || results[i] == nil {
			msg := "no result"
			if errs[i] != nil {
				msg = errs[i].Error()
			}
			summary.Errors[sym] = msg
			continue
		}
		r := results[i]
		summary.Results = append(summary.Results, *r)
		summary.SignalDistribution[r.Signal]++
		total += r.Score
	}
	summary.TotalAnalyzed = len(summary.Results)

	if summary.TotalAnalyzed == 0 {
		return summary, fmt.Errorf("%s: %w", name, models.ErrNoInstrumentsAnalyzed)
	}
	summary.AverageScore = total / float64(summary.TotalAnalyzed)
	summary.Interpretation = scoring.Interpret(summary.AverageScore)

	ia.logger.Info("index analysis complete",
		applogger.String("index", name),
		applogger.Int("analyzed", summary.TotalAnalyzed),
		applogger.Int("failed", len(summary.Errors)),
		applogger.Float64("average_score", summary.AverageScore),
	)
	return summary, nil
}
