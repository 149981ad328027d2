package calculator

import (
	"math"

	"MarketLens/internal/model"
)

// RSI computes the relative strength index using simple moving averages of
// gains and losses over period bars. The first period cells are undefined.
// A window with no losses saturates at 100; a window with neither gains nor
// losses is undefined.
func RSI(closes []float64, period int) ([]model.Value, error) {
	if period < 1 {
		return nil, invalidPeriod("RSI", period)
	}
	out := model.Undefineds(len(closes))
	gains := newRollingWindow(period)
	losses := newRollingWindow(period)

	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if math.IsNaN(change) {
			gains.Reset()
			losses.Reset()
			continue
		}
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		gains.Push(gain)
		losses.Push(loss)
		if gains.Ready() {
			if v, ok := rsiFromAverages(gains.Mean(), losses.Mean()); ok {
				out[i] = model.Defined(v)
			}
		}
	}
	return out, nil
}

func rsiFromAverages(avgGain, avgLoss float64) (float64, bool) {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 0, false
		}
		return 100.0, true
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), true
}
