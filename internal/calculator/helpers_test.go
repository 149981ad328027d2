package calculator

import (
	"math"
	"testing"
	"time"

	"MarketLens/internal/model"
)

var baseDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func makeSeries(closes ...float64) model.PriceSeries {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Date:   baseDate.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return model.PriceSeries{Symbol: "TEST", Bars: bars}
}

// wave produces a deterministic, non-monotonic price path.
func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i)
		out[i] = 100 + 8*math.Sin(x/5) + 3*math.Cos(x/1.7) + 0.05*x
	}
	return out
}

func ramp(from, to int) []float64 {
	out := make([]float64, 0, to-from+1)
	for v := from; v <= to; v++ {
		out = append(out, float64(v))
	}
	return out
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.8f, want %.8f (diff=%.2e)", label, got, want, math.Abs(got-want))
	}
}

func assertUndefinedPrefix(t *testing.T, label string, col []model.Value, n int) {
	t.Helper()
	for i := 0; i < n && i < len(col); i++ {
		if col[i].Valid {
			t.Errorf("%s[%d]: expected undefined, got %.4f", label, i, col[i].V)
		}
	}
	for i := n; i < len(col); i++ {
		if !col[i].Valid {
			t.Errorf("%s[%d]: expected defined value", label, i)
		}
	}
}
