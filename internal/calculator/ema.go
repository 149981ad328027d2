package calculator

import "MarketLens/internal/model"

// emaAccumulator holds the running value of an unadjusted EMA seeded from
// the first observation.
type emaAccumulator struct {
	alpha  float64
	value  float64
	seeded bool
}

func newEMAAccumulator(span int) *emaAccumulator {
	return &emaAccumulator{alpha: 2.0 / float64(span+1)}
}

func (e *emaAccumulator) Update(x float64) float64 {
	if !e.seeded {
		e.value = x
		e.seeded = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

// EMA computes the exponential moving average of values with α = 2/(span+1).
// Undefined inputs yield undefined outputs and leave the running value untouched.
func EMA(values []model.Value, span int) ([]model.Value, error) {
	if span < 1 {
		return nil, invalidPeriod("EMA", span)
	}
	out := model.Undefineds(len(values))
	acc := newEMAAccumulator(span)
	for i, v := range values {
		if !v.Valid {
			continue
		}
		out[i] = model.Defined(acc.Update(v.V))
	}
	return out, nil
}
