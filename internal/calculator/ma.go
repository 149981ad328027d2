package calculator

import (
	"errors"
	"fmt"
	"math"

	"MarketLens/internal/model"
)

var (
	// ErrInvalidPeriod is returned for window or span lengths below 1.
	ErrInvalidPeriod = errors.New("period must be positive")
	// ErrInvalidOrder is returned for level detection half-widths below 1.
	ErrInvalidOrder = errors.New("order must be positive")
)

func invalidPeriod(name string, period int) error {
	return fmt.Errorf("%s period %d: %w", name, period, ErrInvalidPeriod)
}

// SMA computes the trailing simple moving average over period bars.
// The first period-1 cells are undefined, and so is any cell whose window
// contains a NaN.
func SMA(prices []float64, period int) ([]model.Value, error) {
	if period < 1 {
		return nil, invalidPeriod("SMA", period)
	}
	out := model.Undefineds(len(prices))
	w := newRollingWindow(period)
	for i, p := range prices {
		if math.IsNaN(p) {
			w.Reset()
			continue
		}
		w.Push(p)
		if w.Ready() {
			out[i] = model.Defined(w.Mean())
		}
	}
	return out, nil
}

// toValues converts raw prices into cells, mapping NaN to undefined.
func toValues(prices []float64) []model.Value {
	out := make([]model.Value, len(prices))
	for i, p := range prices {
		out[i] = model.Defined(p)
	}
	return out
}
