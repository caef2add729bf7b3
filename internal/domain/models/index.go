package models

import "time"

// IndexSummary aggregates per-constituent analyses for one index.
// Note: no transport (json/http) concerns here.
type IndexSummary struct {
	Index              string
	TotalInList        int
	TotalAnalyzed      int
	AverageScore       float64
	Interpretation     string
	SignalDistribution map[Signal]int
	Results            []AnalysisResult
	Errors             map[string]string
	GeneratedAt        time.Time
}

// NewSignalDistribution returns a distribution with every signal present at 0.
func NewSignalDistribution() map[Signal]int {
	out := make(map[Signal]int, len(AllSignals))
	for _, s := range AllSignals {
		out[s] = 0
	}
	return out
}
