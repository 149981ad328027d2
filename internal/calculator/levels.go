package calculator

import (
	"fmt"
	"math"

	"MarketLens/internal/model"
)

// DetectLevels scans the close series for local extrema. For every index i
// with order <= i < len-order, the close at i is compared against the window
// of 2*order+1 closes centred on it: equal to the window max emits a
// resistance, equal to the window min emits a support. Both checks run
// independently, so a flat window emits both. Windows containing NaN are
// skipped.
func DetectLevels(series model.PriceSeries, order int) ([]model.Level, error) {
	if order < 1 {
		return nil, fmt.Errorf("detect levels with order %d: %w", order, ErrInvalidOrder)
	}
	prices := series.Closes()
	levels := []model.Level{}

	for i := order; i < len(prices)-order; i++ {
		hi, lo, ok := windowExtremes(prices[i-order : i+order+1])
		if !ok {
			continue
		}
		date := series.Bars[i].Date
		if prices[i] == hi {
			levels = append(levels, model.Level{Kind: model.Resistance, Date: date, Price: prices[i]})
		}
		if prices[i] == lo {
			levels = append(levels, model.Level{Kind: model.Support, Date: date, Price: prices[i]})
		}
	}
	return levels, nil
}

func windowExtremes(window []float64) (hi, lo float64, ok bool) {
	hi = math.Inf(-1)
	lo = math.Inf(1)
	for _, p := range window {
		if math.IsNaN(p) {
			return 0, 0, false
		}
		if p > hi {
			hi = p
		}
		if p < lo {
			lo = p
		}
	}
	return hi, lo, true
}

// RecentLevels returns the last n levels, or all of them when fewer exist.
func RecentLevels(levels []model.Level, n int) []model.Level {
	if n <= 0 {
		return nil
	}
	if len(levels) <= n {
		return levels
	}
	return levels[len(levels)-n:]
}
