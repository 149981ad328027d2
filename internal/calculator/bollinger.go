package calculator

import (
	"math"

	"MarketLens/internal/model"
)

// BollingerResult holds the middle band and the envelope.
type BollingerResult struct {
	Middle []model.Value
	Upper  []model.Value
	Lower  []model.Value
}

// Bollinger computes SMA(window) ± k·σ, where σ is the population standard
// deviation of the same trailing window.
func Bollinger(closes []float64, window int, k float64) (BollingerResult, error) {
	if window < 1 {
		return BollingerResult{}, invalidPeriod("Bollinger", window)
	}
	n := len(closes)
	res := BollingerResult{
		Middle: model.Undefineds(n),
		Upper:  model.Undefineds(n),
		Lower:  model.Undefineds(n),
	}
	w := newRollingWindow(window)
	for i, p := range closes {
		if math.IsNaN(p) {
			w.Reset()
			continue
		}
		w.Push(p)
		if !w.Ready() {
			continue
		}
		mid := w.Mean()
		band := k * w.StdDev()
		res.Middle[i] = model.Defined(mid)
		res.Upper[i] = model.Defined(mid + band)
		res.Lower[i] = model.Defined(mid - band)
	}
	return res, nil
}
