package strategy

import "MarketLens/internal/model"

func defined(vs ...model.Value) bool {
	for _, v := range vs {
		if !v.Valid {
			return false
		}
	}
	return true
}

// classifyBollinger reads the close against the envelope.
func classifyBollinger(row model.FrameRow, _ Thresholds) (model.State, bool) {
	if !defined(row.Close, row.BBUpper, row.BBLower) {
		return "", false
	}
	switch {
	case row.Close.V > row.BBUpper.V:
		return model.StateOverbought, true
	case row.Close.V < row.BBLower.V:
		return model.StateOversold, true
	default:
		return model.StateNeutral, true
	}
}

// classifyTrend compares the close with the middle band. A close equal to
// the SMA counts as bearish.
func classifyTrend(row model.FrameRow, _ Thresholds) (model.State, bool) {
	if !defined(row.Close, row.SMA20) {
		return "", false
	}
	if row.Close.V > row.SMA20.V {
		return model.StateBullish, true
	}
	return model.StateBearish, true
}

func classifyRSI(row model.FrameRow, th Thresholds) (model.State, bool) {
	if !defined(row.RSI) {
		return "", false
	}
	switch {
	case row.RSI.V > th.Overbought:
		return model.StateOverbought, true
	case row.RSI.V < th.Oversold:
		return model.StateOversold, true
	default:
		return model.StateNeutral, true
	}
}

// classifyMACD: MACD equal to its signal counts as bearish.
func classifyMACD(row model.FrameRow, _ Thresholds) (model.State, bool) {
	if !defined(row.MACD, row.Signal) {
		return "", false
	}
	if row.MACD.V > row.Signal.V {
		return model.StateBullish, true
	}
	return model.StateBearish, true
}

// classifyHistogram: a zero histogram counts as weakening.
func classifyHistogram(row model.FrameRow, _ Thresholds) (model.State, bool) {
	if !defined(row.Histogram) {
		return "", false
	}
	if row.Histogram.V > 0 {
		return model.StateMomentumBuilding, true
	}
	return model.StateMomentumWeakening, true
}
