package model

import "time"

// Family identifies which indicator rule produced a tag.
type Family string

const (
	FamilyBollinger Family = "bollinger"
	FamilyTrend     Family = "trend"
	FamilyRSI       Family = "rsi"
	FamilyMACD      Family = "macd"
	FamilyHistogram Family = "histogram"
)

// State is the qualitative reading of a family.
type State string

const (
	StateOverbought        State = "overbought"
	StateOversold          State = "oversold"
	StateNeutral           State = "neutral"
	StateBullish           State = "bullish"
	StateBearish           State = "bearish"
	StateMomentumBuilding  State = "momentum_building"
	StateMomentumWeakening State = "momentum_weakening"
)

// Tag is one statement of an interpretation summary.
type Tag struct {
	Family Family `json:"family"`
	State  State  `json:"state"`
}

// Summary is the ordered list of tags derived from the latest frame row.
type Summary struct {
	Tags []Tag `json:"tags"`
}

func (s Summary) Empty() bool { return len(s.Tags) == 0 }

// Lookup returns the tag of a family if the summary has one.
func (s Summary) Lookup(f Family) (Tag, bool) {
	for _, t := range s.Tags {
		if t.Family == f {
			return t, true
		}
	}
	return Tag{}, false
}

// Analysis bundles everything one run produces for a symbol.
type Analysis struct {
	Symbol     string          `json:"symbol"`
	Frame      *IndicatorFrame `json:"frame"`
	Levels     []Level         `json:"levels"`
	Summary    Summary         `json:"summary"`
	AnalyzedAt time.Time       `json:"analyzed_at"`
}

// InsufficientData reports whether there is nothing meaningful to present.
func (a *Analysis) InsufficientData() bool {
	return a.Summary.Empty() || a.Frame.AllUndefined()
}
