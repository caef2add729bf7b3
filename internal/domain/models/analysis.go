package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Data modes describe the candle interval an analysis ran on.
const (
	DataModeRealtime   = "REAL-TIME (1m)"
	DataModeHistorical = "HISTORICAL (1d)"
)

// AnalysisResult is the output record for one instrument and one pass.
// Failed passes carry Error and leave the numeric fields zero.
type AnalysisResult struct {
	ID      string
	CycleID string
	Symbol  string

	Score         float64
	SmoothedScore float64
	Confidence    float64
	Signal        Signal
	StopPrice     float64
	Breakdown     map[string]float64
	Features      FeatureVector
	Weights       WeightVector

	BarTime         time.Time
	Close           float64
	Interval        string
	DataMode        string
	Interpretation  string
	Indicators      map[string]float64
	ValidIndicators int
	Degraded        []string

	Error       string
	GeneratedAt time.Time
}

// Failed reports whether the pass produced an error instead of a score.
func (r *AnalysisResult) Failed() bool { return r.Error != "" }

// AnalysisView is the rounded, transport-friendly form of AnalysisResult.
type AnalysisView struct {
	ID              string             `json:"id,omitempty"`
	CycleID         string             `json:"cycle_id,omitempty"`
	Symbol          string             `json:"symbol"`
	Score           float64            `json:"score"`
	SmoothedScore   float64            `json:"smoothed_score"`
	Confidence      float64            `json:"confidence"`
	Signal          Signal             `json:"signal,omitempty"`
	StopPrice       float64            `json:"stop_price"`
	Close           float64            `json:"close"`
	Breakdown       map[string]float64 `json:"breakdown,omitempty"`
	Indicators      map[string]float64 `json:"indicators,omitempty"`
	Interpretation  string             `json:"interpretation,omitempty"`
	DataMode        string             `json:"data_mode,omitempty"`
	Interval        string             `json:"interval,omitempty"`
	ValidIndicators int                `json:"valid_indicators"`
	Degraded        []string           `json:"degraded,omitempty"`
	BarTime         time.Time          `json:"bar_time"`
	GeneratedAt     time.Time          `json:"generated_at"`
	Error           string             `json:"error,omitempty"`
}

// View rounds prices and scores to 2 decimals, confidence and contributions to 4.
func (r *AnalysisResult) View() AnalysisView {
	return AnalysisView{
		ID:              r.ID,
		CycleID:         r.CycleID,
		Symbol:          r.Symbol,
		Score:           Round(r.Score, 2),
		SmoothedScore:   Round(r.SmoothedScore, 2),
		Confidence:      Round(r.Confidence, 4),
		Signal:          r.Signal,
		StopPrice:       Round(r.StopPrice, 2),
		Close:           Round(r.Close, 2),
		Breakdown:       roundMap(r.Breakdown, 4),
		Indicators:      roundMap(r.Indicators, 4),
		Interpretation:  r.Interpretation,
		DataMode:        r.DataMode,
		Interval:        r.Interval,
		ValidIndicators: r.ValidIndicators,
		Degraded:        r.Degraded,
		BarTime:         r.BarTime,
		GeneratedAt:     r.GeneratedAt,
		Error:           r.Error,
	}
}

// Round rounds v half away from zero to places decimals. Non-finite values become 0.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

func roundMap(in map[string]float64, places int32) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = Round(v, places)
	}
	return out
}

// Evaluation is the output of the pure scoring stages for one candle series.
type Evaluation struct {
	Latest     IndicatorRow
	Features   FeatureSet
	Weights    WeightVector
	Score      ScoreResult
	Confidence float64
}

// Decision is the signal and stop derived from a score.
type Decision struct {
	Signal    Signal
	StopPrice float64
}
