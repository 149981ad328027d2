package strategy

import "MarketLens/internal/model"

// Thresholds holds the RSI bounds used by the interpretation rules.
type Thresholds struct {
	Overbought float64 `yaml:"overbought"`
	Oversold   float64 `yaml:"oversold"`
}

// DefaultThresholds returns the conventional 70/30 RSI bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{Overbought: 70, Oversold: 30}
}

// rule classifies one indicator family. ok is false when an input is undefined.
type rule func(row model.FrameRow, th Thresholds) (state model.State, ok bool)

// rules are evaluated in this order; each contributes at most one tag.
var rules = []struct {
	family model.Family
	eval   rule
}{
	{model.FamilyBollinger, classifyBollinger},
	{model.FamilyTrend, classifyTrend},
	{model.FamilyRSI, classifyRSI},
	{model.FamilyMACD, classifyMACD},
	{model.FamilyHistogram, classifyHistogram},
}

// Interpret maps a frame row to a summary using the default thresholds.
// Levels do not change any tag; they are accepted so callers hand over the
// full analysis result.
func Interpret(row model.FrameRow, levels []model.Level) model.Summary {
	return InterpretWith(row, levels, DefaultThresholds())
}

// InterpretWith maps a frame row to a summary. Rules whose inputs are
// undefined are left out, so a short history yields a partial summary.
func InterpretWith(row model.FrameRow, _ []model.Level, th Thresholds) model.Summary {
	tags := make([]model.Tag, 0, len(rules))
	for _, r := range rules {
		if state, ok := r.eval(row, th); ok {
			tags = append(tags, model.Tag{Family: r.family, State: state})
		}
	}
	return model.Summary{Tags: tags}
}

// Evaluate interprets the latest row of the frame. An empty frame gives an
// empty summary.
func Evaluate(frame *model.IndicatorFrame, levels []model.Level, th Thresholds) model.Summary {
	row, ok := frame.Latest()
	if !ok {
		return model.Summary{Tags: []model.Tag{}}
	}
	return InterpretWith(row, levels, th)
}
