package calculator

import "MarketLens/internal/model"

// MACDParams holds the EMA spans of the MACD family.
type MACDParams struct {
	Fast   int `yaml:"fast"`
	Slow   int `yaml:"slow"`
	Signal int `yaml:"signal"`
}

// DefaultMACDParams returns the conventional 12/26/9 spans.
func DefaultMACDParams() MACDParams {
	return MACDParams{Fast: 12, Slow: 26, Signal: 9}
}

// MACDResult holds the columns of the MACD family.
type MACDResult struct {
	EMAFast   []model.Value
	EMASlow   []model.Value
	MACD      []model.Value
	Signal    []model.Value
	Histogram []model.Value
}

// MACD computes EMAFast - EMASlow, its signal EMA and the histogram.
func MACD(closes []float64, p MACDParams) (MACDResult, error) {
	values := toValues(closes)
	fast, err := EMA(values, p.Fast)
	if err != nil {
		return MACDResult{}, err
	}
	slow, err := EMA(values, p.Slow)
	if err != nil {
		return MACDResult{}, err
	}
	macd := subtract(fast, slow)
	signal, err := EMA(macd, p.Signal)
	if err != nil {
		return MACDResult{}, err
	}
	return MACDResult{
		EMAFast:   fast,
		EMASlow:   slow,
		MACD:      macd,
		Signal:    signal,
		Histogram: subtract(macd, signal),
	}, nil
}

func subtract(a, b []model.Value) []model.Value {
	out := model.Undefineds(len(a))
	for i := range a {
		if a[i].Valid && b[i].Valid {
			out[i] = model.Defined(a[i].V - b[i].V)
		}
	}
	return out
}
