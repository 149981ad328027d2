package collector

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"MarketLens/internal/calculator"
	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
	"MarketLens/internal/strategy"
)

func testOptions(m *metrics.Metrics) Options {
	return Options{
		Days:       120,
		Params:     calculator.DefaultParams(),
		Thresholds: strategy.DefaultThresholds(),
		Metrics:    m,
	}
}

func TestCollector_AnalyzeMockSeries(t *testing.T) {
	col := NewCollector(&MockFetcher{Price: 100}, testOptions(nil))
	a, err := col.Analyze(context.Background(), " spx ")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Symbol != "SPX" {
		t.Errorf("expected normalized symbol SPX, got %q", a.Symbol)
	}
	if a.Frame.Len() != 120 {
		t.Errorf("expected 120 bars, got %d", a.Frame.Len())
	}
	// mock bars rise steadily: every rule has enough history
	if len(a.Summary.Tags) != 5 {
		t.Errorf("expected 5 tags, got %+v", a.Summary.Tags)
	}
	if tag, _ := a.Summary.Lookup(model.FamilyTrend); tag.State != model.StateBullish {
		t.Errorf("rising series should read bullish, got %s", tag.State)
	}
	if len(a.Levels) != 0 {
		t.Errorf("strictly rising closes should produce no levels, got %d", len(a.Levels))
	}
}

func TestCollector_ShortSeriesGivesPartialSummary(t *testing.T) {
	col := NewCollector(&MockFetcher{Price: 50}, testOptions(nil))
	series := model.PriceSeries{Symbol: "SHORT", Bars: generateMockBars(50, 10)}
	a, err := col.AnalyzeSeries(series)
	if err != nil {
		t.Fatalf("AnalyzeSeries: %v", err)
	}
	if _, ok := a.Summary.Lookup(model.FamilyRSI); ok {
		t.Error("RSI needs 15 bars, tag must be omitted")
	}
	if _, ok := a.Summary.Lookup(model.FamilyBollinger); ok {
		t.Error("Bollinger needs 20 bars, tag must be omitted")
	}
	if _, ok := a.Summary.Lookup(model.FamilyMACD); !ok {
		t.Error("MACD is defined from the first bar and should be tagged")
	}
}

func TestCollector_RejectsMalformedInput(t *testing.T) {
	m := metrics.New()
	col := NewCollector(&MockFetcher{}, testOptions(m))
	bars := generateMockBars(100, 30)
	bars[7].High, bars[7].Low = bars[7].Low, bars[7].High

	_, err := col.AnalyzeSeries(model.PriceSeries{Symbol: "BAD", Bars: bars})
	if !errors.Is(err, model.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
}

func TestCollector_FetchError(t *testing.T) {
	col := NewCollector(&MockFetcher{Err: errors.New("boom")}, testOptions(nil))
	if _, err := col.Analyze(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected fetch error")
	}
	if _, err := col.Analyze(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty symbol")
	}
}

func TestCollector_AnalyzeAllKeepsOrderAndIsolatesFailures(t *testing.T) {
	bad := generateMockBars(100, 40)
	bad[3].Date = bad[2].Date
	fetcher := &MockFetcher{
		Price: 100,
		Data:  map[string][]model.PriceBar{"BAD": bad},
	}
	col := NewCollector(fetcher, testOptions(nil))
	results := col.AnalyzeAll(context.Background(), []string{"AAPL", "BAD", "MSFT"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"AAPL", "BAD", "MSFT"} {
		if results[i].Symbol != want {
			t.Errorf("result %d: got %s, want %s", i, results[i].Symbol, want)
		}
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("good symbols should succeed: %v / %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, model.ErrMalformedInput) {
		t.Errorf("expected malformed input for BAD, got %v", results[1].Err)
	}
}

func TestCollector_AnalyzeAllLogsNormalizedSymbol(t *testing.T) {
	bad := generateMockBars(100, 40)
	bad[3].Date = bad[2].Date
	fetcher := &MockFetcher{
		Price: 100,
		Data:  map[string][]model.PriceBar{"BAD": bad},
	}
	col := NewCollector(fetcher, testOptions(nil))
	var buf bytes.Buffer
	col.logger = zerolog.New(&buf)

	results := col.AnalyzeAll(context.Background(), []string{" bad "})
	if results[0].Symbol != "BAD" || results[0].Err == nil {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if !strings.Contains(buf.String(), `"symbol":"BAD"`) {
		t.Errorf("log should carry the normalized symbol, got %s", buf.String())
	}
}

func TestRun_IsDeterministic(t *testing.T) {
	series := model.PriceSeries{Symbol: "DET", Bars: generateMockBars(80, 60)}
	a, err := Run(series, calculator.DefaultParams(), strategy.DefaultThresholds())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := Run(series, calculator.DefaultParams(), strategy.DefaultThresholds())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(a.Summary.Tags) != len(b.Summary.Tags) {
		t.Fatal("summaries differ between runs")
	}
	for i := range a.Summary.Tags {
		if a.Summary.Tags[i] != b.Summary.Tags[i] {
			t.Errorf("tag %d differs: %+v vs %+v", i, a.Summary.Tags[i], b.Summary.Tags[i])
		}
	}
}

func TestNormalizeBars(t *testing.T) {
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	bars := []model.PriceBar{
		{Date: d.AddDate(0, 0, 2), Close: 3},
		{Date: d, Close: 1},
		{Date: d.AddDate(0, 0, 2), Close: 4},
	}
	out := normalizeBars(bars)
	if len(out) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(out))
	}
	if out[0].Close != 1 || out[1].Close != 4 {
		t.Errorf("expected sorted bars keeping the last duplicate, got %+v", out)
	}
}

func TestNewFetcher(t *testing.T) {
	tests := []struct {
		provider string
		baseURL  string
		want     string
		wantErr  bool
	}{
		{"", "", "yahoo", false},
		{"yahoo", "http://mirror.local", "yahoo", false},
		{"rest", "http://bars.local", "rest", false},
		{"rest", "", "", true},
		{"mock", "", "mock", false},
		{"bloomberg", "", "", true},
	}
	for _, tt := range tests {
		f, err := NewFetcher(tt.provider, tt.baseURL, "", ClientOptions{})
		if (err != nil) != tt.wantErr {
			t.Errorf("NewFetcher(%q) err = %v, wantErr %v", tt.provider, err, tt.wantErr)
			continue
		}
		if err == nil && f.Name() != tt.want {
			t.Errorf("NewFetcher(%q) = %s, want %s", tt.provider, f.Name(), tt.want)
		}
	}
}
