package strategy

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
)

func fullRow(close, upper, lower, sma, rsi, macd, signal, hist float64) model.FrameRow {
	return model.FrameRow{
		Date:      time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Close:     model.Defined(close),
		BBUpper:   model.Defined(upper),
		BBLower:   model.Defined(lower),
		SMA20:     model.Defined(sma),
		RSI:       model.Defined(rsi),
		MACD:      model.Defined(macd),
		Signal:    model.Defined(signal),
		Histogram: model.Defined(hist),
	}
}

func TestInterpret_OverboughtBullishMarket(t *testing.T) {
	sum := Interpret(fullRow(110, 105, 95, 100, 75, 2, 1, 1), nil)
	want := []model.Tag{
		{Family: model.FamilyBollinger, State: model.StateOverbought},
		{Family: model.FamilyTrend, State: model.StateBullish},
		{Family: model.FamilyRSI, State: model.StateOverbought},
		{Family: model.FamilyMACD, State: model.StateBullish},
		{Family: model.FamilyHistogram, State: model.StateMomentumBuilding},
	}
	if !reflect.DeepEqual(sum.Tags, want) {
		t.Errorf("got %+v, want %+v", sum.Tags, want)
	}
}

func TestInterpret_OversoldBearishMarket(t *testing.T) {
	sum := Interpret(fullRow(90, 105, 95, 100, 25, -2, -1, -1), nil)
	want := []model.State{
		model.StateOversold, model.StateBearish, model.StateOversold,
		model.StateBearish, model.StateMomentumWeakening,
	}
	if len(sum.Tags) != len(want) {
		t.Fatalf("expected %d tags, got %d", len(want), len(sum.Tags))
	}
	for i, s := range want {
		if sum.Tags[i].State != s {
			t.Errorf("tag %d (%s): got %s, want %s", i, sum.Tags[i].Family, sum.Tags[i].State, s)
		}
	}
}

func TestInterpret_TieBreaks(t *testing.T) {
	// close == SMA, MACD == Signal, histogram == 0, close on the band, RSI on the bounds
	sum := Interpret(fullRow(100, 100, 90, 100, 70, 1, 1, 0), nil)
	checks := map[model.Family]model.State{
		model.FamilyBollinger: model.StateNeutral,
		model.FamilyTrend:     model.StateBearish,
		model.FamilyRSI:       model.StateNeutral,
		model.FamilyMACD:      model.StateBearish,
		model.FamilyHistogram: model.StateMomentumWeakening,
	}
	for family, want := range checks {
		tag, ok := sum.Lookup(family)
		if !ok {
			t.Errorf("%s: missing tag", family)
			continue
		}
		if tag.State != want {
			t.Errorf("%s: got %s, want %s", family, tag.State, want)
		}
	}

	sum = Interpret(fullRow(100, 110, 90, 100, 30, 1, 1, 0), nil)
	if tag, _ := sum.Lookup(model.FamilyRSI); tag.State != model.StateNeutral {
		t.Errorf("RSI of exactly 30 should be neutral, got %s", tag.State)
	}
}

func TestInterpret_SkipsUndefinedInputs(t *testing.T) {
	row := fullRow(110, 105, 95, 100, 75, 2, 1, 1)
	row.RSI = model.Undefined
	row.BBUpper = model.Undefined

	sum := Interpret(row, nil)
	if _, ok := sum.Lookup(model.FamilyRSI); ok {
		t.Error("RSI tag must be omitted when RSI is undefined")
	}
	if _, ok := sum.Lookup(model.FamilyBollinger); ok {
		t.Error("Bollinger tag must be omitted when a band is undefined")
	}
	got := []model.Family{}
	for _, tag := range sum.Tags {
		got = append(got, tag.Family)
	}
	want := []model.Family{model.FamilyTrend, model.FamilyMACD, model.FamilyHistogram}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got families %v, want %v", got, want)
	}
}

func TestInterpretWith_CustomThresholds(t *testing.T) {
	th := Thresholds{Overbought: 80, Oversold: 20}
	sum := InterpretWith(fullRow(100, 110, 90, 100, 75, 1, 1, 0), nil, th)
	if tag, _ := sum.Lookup(model.FamilyRSI); tag.State != model.StateNeutral {
		t.Errorf("RSI 75 with 80/20 bounds should be neutral, got %s", tag.State)
	}
}

func TestEvaluate_EmptyFrame(t *testing.T) {
	sum := Evaluate(&model.IndicatorFrame{}, nil, DefaultThresholds())
	if !sum.Empty() {
		t.Errorf("expected empty summary, got %+v", sum.Tags)
	}
}

func TestEvaluate_UsesLatestRow(t *testing.T) {
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	frame := &model.IndicatorFrame{
		Bars: []model.PriceBar{
			{Date: d, Open: 90, High: 91, Low: 89, Close: 90},
			{Date: d.AddDate(0, 0, 1), Open: 110, High: 111, Low: 109, Close: 110},
		},
		EMA12:     []model.Value{model.Undefined, model.Undefined},
		EMA26:     []model.Value{model.Undefined, model.Undefined},
		MACD:      []model.Value{model.Defined(-1), model.Defined(3)},
		Signal:    []model.Value{model.Defined(0), model.Defined(1)},
		Histogram: []model.Value{model.Defined(-1), model.Defined(2)},
		SMA20:     []model.Value{model.Undefined, model.Defined(100)},
		BBUpper:   []model.Value{model.Undefined, model.Undefined},
		BBLower:   []model.Value{model.Undefined, model.Undefined},
		RSI:       []model.Value{model.Undefined, model.Undefined},
	}
	sum := Evaluate(frame, nil, DefaultThresholds())
	want := []model.Tag{
		{Family: model.FamilyTrend, State: model.StateBullish},
		{Family: model.FamilyMACD, State: model.StateBullish},
		{Family: model.FamilyHistogram, State: model.StateMomentumBuilding},
	}
	if !reflect.DeepEqual(sum.Tags, want) {
		t.Errorf("got %+v, want %+v", sum.Tags, want)
	}
}

func TestEvaluate_FlatMarketAfterVolatileHistory(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	d := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	var bars []model.PriceBar
	p := 100.0
	for i := 0; i < 325; i++ {
		if i < 300 {
			p = math.Round(math.Max(1, p+rng.NormFloat64())*100) / 100
		}
		bars = append(bars, model.PriceBar{Date: d.AddDate(0, 0, i), Open: p, High: p, Low: p, Close: p, Volume: 1000})
	}
	frame, err := calculator.Compute(model.PriceSeries{Symbol: "PEG", Bars: bars}, calculator.DefaultParams())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	row, _ := frame.Latest()
	if row.SMA20.V != p || row.BBUpper.V != p || row.BBLower.V != p {
		t.Fatalf("flat bands: close=%.17g sma=%.17g upper=%.17g lower=%.17g",
			p, row.SMA20.V, row.BBUpper.V, row.BBLower.V)
	}

	sum := Evaluate(frame, nil, DefaultThresholds())
	if tag, ok := sum.Lookup(model.FamilyBollinger); !ok || tag.State != model.StateNeutral {
		t.Errorf("bollinger = %+v (present=%v), want neutral", tag, ok)
	}
	if tag, ok := sum.Lookup(model.FamilyTrend); !ok || tag.State != model.StateBearish {
		t.Errorf("trend = %+v (present=%v), want bearish on a tie", tag, ok)
	}
	if tag, ok := sum.Lookup(model.FamilyRSI); ok {
		t.Errorf("flat RSI window should produce no tag, got %+v", tag)
	}
}
