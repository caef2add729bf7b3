package models

// Requests for the analysis HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=32"`
	Smooth bool   `query:"smooth" json:"smooth" default:"false"`
	// Indicators optionally limits the indicator snapshot to a comma-separated
	// list of canonical names or aliases such as RSI_14 or MACDh_12_26_9.
	Indicators string `query:"indicators" json:"indicators,omitempty" validate:"max=256"`
}

type IndexRequest struct {
	Name string `query:"name" json:"name" default:"NIFTY50" validate:"required,max=32"`
}

type LatestSignalRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=32"`
}

// IndexSummaryView is the response body for an index analysis.
type IndexSummaryView struct {
	Index              string            `json:"index"`
	TotalInList        int               `json:"total_in_list"`
	TotalAnalyzed      int               `json:"total_analyzed"`
	AverageScore       float64           `json:"average_score"`
	Interpretation     string            `json:"interpretation"`
	SignalDistribution map[Signal]int    `json:"signal_distribution"`
	Results            []AnalysisView    `json:"results,omitempty"`
	Errors             map[string]string `json:"errors,omitempty"`
}

// View converts an IndexSummary into its response body.
func (s *IndexSummary) View() IndexSummaryView {
	results := make([]AnalysisView, 0, len(s.Results))
	for i := range s.Results {
		results = append(results, s.Results[i].View())
	}
	return IndexSummaryView{
		Index:              s.Index,
		TotalInList:        s.TotalInList,
		TotalAnalyzed:      s.TotalAnalyzed,
		AverageScore:       Round(s.AverageScore, 2),
		Interpretation:     s.Interpretation,
		SignalDistribution: s.SignalDistribution,
		Results:            results,
		Errors:             s.Errors,
	}
}

// UniverseEntry describes one index in the universe listing.
type UniverseEntry struct {
	Name    string   `json:"name"`
	Size    int      `json:"size"`
	Symbols []string `json:"symbols"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,max=32"`
	Hours  int    `query:"hours" json:"hours" default:"24" validate:"min=1,max=720"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"min=1,max=1000"`
	// To ends the window: RFC3339, a date or unix seconds. Defaults to now.
	To string `query:"to" json:"to,omitempty" validate:"max=40"`
}
