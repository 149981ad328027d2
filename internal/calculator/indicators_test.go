package calculator

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/markcheno/go-talib"

	"MarketLens/internal/model"
)

func TestRSI_HandCalculated(t *testing.T) {
	// diffs +1 -1 +2 -> gains avg 1, losses avg 1/3 -> RS 3 -> 75
	// diffs -1 +2 -1 -> gains avg 2/3, losses avg 2/3 -> 50
	rsi, err := RSI([]float64{10, 11, 10, 12, 11}, 3)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	assertUndefinedPrefix(t, "RSI", rsi, 3)
	assertClose(t, "RSI[3]", rsi[3].V, 75, 1e-9)
	assertClose(t, "RSI[4]", rsi[4].V, 50, 1e-9)
}

func TestRSI_SaturatesWithoutLosses(t *testing.T) {
	rsi, err := RSI(ramp(1, 20), 14)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	assertUndefinedPrefix(t, "RSI", rsi, 14)
	for i := 14; i < len(rsi); i++ {
		if rsi[i].V != 100 {
			t.Errorf("RSI[%d] = %.6f, want exactly 100", i, rsi[i].V)
		}
	}
}

func TestRSI_SaturatesOnceLossesLeaveWindow(t *testing.T) {
	rsi, err := RSI([]float64{10, 9, 10, 11, 12}, 2)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	assertClose(t, "RSI[2]", rsi[2].V, 50, 1e-9)
	if rsi[3].V != 100 || rsi[4].V != 100 {
		t.Errorf("expected exact saturation after losses leave the window, got %.6f %.6f", rsi[3].V, rsi[4].V)
	}
}

func TestRSI_FlatWindowIsUndefined(t *testing.T) {
	rsi, err := RSI([]float64{5, 5, 5, 5, 5}, 3)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	for i, v := range rsi {
		if v.Valid {
			t.Errorf("flat RSI[%d] = %.4f, want undefined", i, v.V)
		}
	}
}

func TestRSI_FlatTailAfterMovesIsUndefined(t *testing.T) {
	closes := append([]float64{10, 12, 9, 11}, 11, 11, 11, 11)
	rsi, err := RSI(closes, 3)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	if !rsi[4].Valid {
		t.Errorf("RSI[4] should still be defined while moves remain in the window")
	}
	if rsi[7].Valid {
		t.Errorf("RSI[7] = %.4f, want undefined for a flat window", rsi[7].V)
	}
}

func TestRSI_Bounded(t *testing.T) {
	rsi, err := RSI(wave(300), 14)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	for i, v := range rsi {
		if v.Valid && (v.V < 0 || v.V > 100) {
			t.Errorf("RSI[%d] = %.4f out of [0,100]", i, v.V)
		}
	}
}

func TestRSI_ShortSeriesIsUndefined(t *testing.T) {
	rsi, err := RSI(ramp(1, 14), 14)
	if err != nil {
		t.Fatalf("RSI: %v", err)
	}
	for i, v := range rsi {
		if v.Valid {
			t.Errorf("RSI[%d] should be undefined for a series of length period", i)
		}
	}
}

func TestRSI_InvalidPeriod(t *testing.T) {
	if _, err := RSI([]float64{1, 2, 3}, 0); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestEMA_SeedFromFirstObservation(t *testing.T) {
	ema, err := EMA(toValues([]float64{1, 2, 3}), 3)
	if err != nil {
		t.Fatalf("EMA: %v", err)
	}
	want := []float64{1, 1.5, 2.25}
	for i, w := range want {
		assertClose(t, "EMA", ema[i].V, w, 1e-12)
	}
}

func TestEMA_UndefinedInputs(t *testing.T) {
	in := []model.Value{model.Undefined, model.Defined(2), model.Undefined, model.Defined(4)}
	ema, err := EMA(in, 3)
	if err != nil {
		t.Fatalf("EMA: %v", err)
	}
	if ema[0].Valid || ema[2].Valid {
		t.Errorf("undefined inputs must stay undefined: %+v", ema)
	}
	assertClose(t, "EMA[1]", ema[1].V, 2, 1e-12)
	assertClose(t, "EMA[3]", ema[3].V, 3, 1e-12)
}

func TestMACD_HistogramIsDifference(t *testing.T) {
	res, err := MACD(wave(200), DefaultMACDParams())
	if err != nil {
		t.Fatalf("MACD: %v", err)
	}
	for i := range res.Histogram {
		if !res.MACD[i].Valid || !res.Signal[i].Valid || !res.Histogram[i].Valid {
			t.Fatalf("row %d: MACD family should be defined from the first bar", i)
		}
		if res.Histogram[i].V != res.MACD[i].V-res.Signal[i].V {
			t.Errorf("row %d: histogram %.10f != macd-signal %.10f", i, res.Histogram[i].V, res.MACD[i].V-res.Signal[i].V)
		}
		if res.MACD[i].V != res.EMAFast[i].V-res.EMASlow[i].V {
			t.Errorf("row %d: macd is not fast-slow", i)
		}
	}
	if res.MACD[0].V != 0 {
		t.Errorf("both EMAs seed from the first close, MACD[0] = %.6f", res.MACD[0].V)
	}
}

func TestSMA_MatchesTalib(t *testing.T) {
	prices := wave(120)
	sma, err := SMA(prices, 20)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}
	want := talib.Sma(prices, 20)
	assertUndefinedPrefix(t, "SMA", sma, 19)
	for i := 19; i < len(prices); i++ {
		assertClose(t, "SMA", sma[i].V, want[i], 1e-9)
	}
}

func TestSMA_NaNResetsWindow(t *testing.T) {
	sma, err := SMA([]float64{1, 2, math.NaN(), 4, 5, 6}, 2)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}
	valid := []bool{false, true, false, false, true, true}
	for i, v := range valid {
		if sma[i].Valid != v {
			t.Errorf("SMA[%d].Valid = %v, want %v", i, sma[i].Valid, v)
		}
	}
	assertClose(t, "SMA[4]", sma[4].V, 4.5, 1e-12)
}

func TestBollinger_MatchesTalibPopulationStdDev(t *testing.T) {
	prices := wave(150)
	bb, err := Bollinger(prices, 20, 2)
	if err != nil {
		t.Fatalf("Bollinger: %v", err)
	}
	mid := talib.Sma(prices, 20)
	sd := talib.StdDev(prices, 20, 1.0)
	for i := 19; i < len(prices); i++ {
		assertClose(t, "middle", bb.Middle[i].V, mid[i], 1e-9)
		assertClose(t, "upper", bb.Upper[i].V, mid[i]+2*sd[i], 1e-6)
		assertClose(t, "lower", bb.Lower[i].V, mid[i]-2*sd[i], 1e-6)
	}
}

func TestBollinger_BandOrdering(t *testing.T) {
	prices := append(wave(80), 100, 100, 100, 100, 100, 100, 100, 100, 100, 100,
		100, 100, 100, 100, 100, 100, 100, 100, 100, 100)
	bb, err := Bollinger(prices, 20, 2)
	if err != nil {
		t.Fatalf("Bollinger: %v", err)
	}
	assertUndefinedPrefix(t, "middle", bb.Middle, 19)
	for i := range prices {
		if !bb.Middle[i].Valid {
			continue
		}
		if bb.Upper[i].V < bb.Middle[i].V || bb.Middle[i].V < bb.Lower[i].V {
			t.Errorf("row %d: bands out of order: %.6f %.6f %.6f", i, bb.Upper[i].V, bb.Middle[i].V, bb.Lower[i].V)
		}
	}
	last := len(prices) - 1
	assertClose(t, "flat middle", bb.Middle[last].V, 100, 1e-9)
	assertClose(t, "flat width", bb.Upper[last].V-bb.Lower[last].V, 0, 1e-3)
}

func assertFlatBands(t *testing.T, label string, bb BollingerResult, i int, want float64) {
	t.Helper()
	if bb.Middle[i].V != want || bb.Upper[i].V != want || bb.Lower[i].V != want {
		t.Errorf("%s row %d: middle=%.17g upper=%.17g lower=%.17g, want all %.17g",
			label, i, bb.Middle[i].V, bb.Upper[i].V, bb.Lower[i].V, want)
	}
}

func TestBollinger_FlatTailCollapsesToClose(t *testing.T) {
	prices := []float64{100, 5000, 3, 9000, 7}
	for i := 0; i < 40; i++ {
		prices = append(prices, 50.1)
	}
	bb, err := Bollinger(prices, 20, 2)
	if err != nil {
		t.Fatalf("Bollinger: %v", err)
	}
	for i := 24; i < len(prices); i++ {
		assertFlatBands(t, "spiky prefix", bb, i, 50.1)
	}
}

func TestBollinger_FlatTailAfterRandomWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		p := 100.0
		prices := make([]float64, 0, 325)
		for i := 0; i < 300; i++ {
			p = math.Max(1, p+rng.NormFloat64())
			prices = append(prices, math.Round(p*100)/100)
		}
		flat := prices[len(prices)-1]
		for i := 0; i < 25; i++ {
			prices = append(prices, flat)
		}
		bb, err := Bollinger(prices, 20, 2)
		if err != nil {
			t.Fatalf("Bollinger: %v", err)
		}
		sma, err := SMA(prices, 20)
		if err != nil {
			t.Fatalf("SMA: %v", err)
		}
		for i := 319; i < len(prices); i++ {
			assertFlatBands(t, "random walk", bb, i, flat)
			if sma[i].V != flat {
				t.Errorf("trial %d row %d: SMA=%.17g, want %.17g", trial, i, sma[i].V, flat)
			}
		}
		if t.Failed() {
			return
		}
	}
}

func TestRollingWindow_ResyncKeepsMeanAccurate(t *testing.T) {
	w := newRollingWindow(5)
	for i := 0; i < 1000; i++ {
		w.Push(1e6 + float64(i%7)*0.1)
	}
	var sum float64
	for _, v := range w.buf {
		sum += v
	}
	assertClose(t, "mean", w.Mean(), sum/5, 1e-9)
}

func TestCompute_Idempotent(t *testing.T) {
	series := makeSeries(wave(90)...)
	before := make([]model.PriceBar, len(series.Bars))
	copy(before, series.Bars)

	a, err := Compute(series, DefaultParams())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	b, err := Compute(series, DefaultParams())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two runs over the same series produced different frames")
	}
	if !reflect.DeepEqual(before, series.Bars) {
		t.Error("Compute mutated its input series")
	}
	a.Bars[0].Close = -1
	if series.Bars[0].Close == -1 {
		t.Error("frame shares its bar slice with the input")
	}
}

func TestCompute_ColumnsAligned(t *testing.T) {
	frame, err := Compute(makeSeries(wave(40)...), DefaultParams())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	cols := map[string][]model.Value{
		"EMA12": frame.EMA12, "EMA26": frame.EMA26, "MACD": frame.MACD, "Signal": frame.Signal,
		"Histogram": frame.Histogram, "SMA20": frame.SMA20, "BBUpper": frame.BBUpper,
		"BBLower": frame.BBLower, "RSI": frame.RSI,
	}
	for name, col := range cols {
		if len(col) != frame.Len() {
			t.Errorf("%s has %d cells, want %d", name, len(col), frame.Len())
		}
	}
	assertUndefinedPrefix(t, "SMA20", frame.SMA20, 19)
	assertUndefinedPrefix(t, "RSI", frame.RSI, 14)
}

func TestCompute_EmptySeries(t *testing.T) {
	frame, err := Compute(model.PriceSeries{Symbol: "EMPTY"}, DefaultParams())
	if err != nil {
		t.Fatalf("empty series should not fail: %v", err)
	}
	if frame.Len() != 0 || !frame.AllUndefined() {
		t.Errorf("expected an empty, all-undefined frame")
	}
	if _, ok := frame.Latest(); ok {
		t.Error("empty frame has no latest row")
	}
}

func TestCompute_InvalidParams(t *testing.T) {
	p := DefaultParams()
	p.BBWindow = 0
	if _, err := Compute(makeSeries(1, 2, 3), p); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
	p = DefaultParams()
	p.LevelOrder = 0
	if _, err := Compute(makeSeries(1, 2, 3), p); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("expected ErrInvalidOrder, got %v", err)
	}
}
