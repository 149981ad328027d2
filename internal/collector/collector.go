package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"MarketLens/internal/calculator"
	"MarketLens/internal/metrics"
	"MarketLens/internal/model"
	"MarketLens/internal/strategy"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Data  map[string][]model.PriceBar
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, days int) (model.PriceSeries, error) {
	if m.Err != nil {
		return model.PriceSeries{}, m.Err
	}
	if bars, ok := m.Data[symbol]; ok {
		return model.PriceSeries{Symbol: symbol, Bars: bars}, nil
	}
	return model.PriceSeries{Symbol: symbol, Bars: generateMockBars(m.Price, days)}, nil
}

func generateMockBars(basePrice float64, count int) []model.PriceBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Options configures a Collector.
type Options struct {
	Days       int
	Params     calculator.Params
	Thresholds strategy.Thresholds
	Metrics    *metrics.Metrics
	// Concurrency bounds AnalyzeAll; 0 means 4.
	Concurrency int
}

// Collector orchestrates fetching and the analysis pipeline:
// validate -> indicators -> levels -> summary.
type Collector struct {
	Fetcher Fetcher
	opts    Options
	logger  zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, opts Options) *Collector {
	if opts.Days <= 0 {
		opts.Days = 5 * 365
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Collector{
		Fetcher: fetcher,
		opts:    opts,
		logger:  log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Analyze fetches the series of symbol and runs the full pipeline.
func (c *Collector) Analyze(ctx context.Context, symbol string) (*model.Analysis, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.New("empty symbol")
	}

	start := time.Now()
	series, err := c.Fetcher.FetchDailyBars(ctx, symbol, c.opts.Days)
	c.opts.Metrics.ObserveFetch(time.Since(start))
	if err != nil {
		c.opts.Metrics.IncResult("fetch_error")
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if series.Symbol == "" {
		series.Symbol = symbol
	}
	c.logger.Debug().Str("symbol", symbol).Int("bars", series.Len()).Msg("series fetched")
	return c.AnalyzeSeries(series)
}

// AnalyzeSeries runs the pipeline on a series the caller already holds.
// Malformed bars are rejected before any indicator runs.
func (c *Collector) AnalyzeSeries(series model.PriceSeries) (*model.Analysis, error) {
	if err := series.Validate(); err != nil {
		c.opts.Metrics.IncResult("invalid_input")
		return nil, fmt.Errorf("validate %s: %w", series.Symbol, err)
	}

	start := time.Now()
	analysis, err := Run(series, c.opts.Params, c.opts.Thresholds)
	if err != nil {
		c.opts.Metrics.IncResult("compute_error")
		return nil, fmt.Errorf("analyze %s: %w", series.Symbol, err)
	}
	c.opts.Metrics.ObserveCompute(time.Since(start), series.Len())
	c.opts.Metrics.IncResult("ok")
	c.record(analysis)

	if analysis.InsufficientData() {
		c.logger.Warn().Str("symbol", series.Symbol).Int("bars", series.Len()).Msg("insufficient data for indicators")
	}
	return analysis, nil
}

// Run is the pure pipeline: it never logs or touches shared state.
func Run(series model.PriceSeries, p calculator.Params, th strategy.Thresholds) (*model.Analysis, error) {
	frame, err := calculator.Compute(series, p)
	if err != nil {
		return nil, err
	}
	levels, err := calculator.DetectLevels(series, p.LevelOrder)
	if err != nil {
		return nil, err
	}
	return &model.Analysis{
		Symbol:     series.Symbol,
		Frame:      frame,
		Levels:     levels,
		Summary:    strategy.Evaluate(frame, levels, th),
		AnalyzedAt: time.Now().UTC(),
	}, nil
}

func (c *Collector) record(a *model.Analysis) {
	m := c.opts.Metrics
	if m == nil {
		return
	}
	var supports, resistances int
	for _, l := range a.Levels {
		if l.Kind == model.Support {
			supports++
		} else {
			resistances++
		}
	}
	m.AddLevels(string(model.Support), supports)
	m.AddLevels(string(model.Resistance), resistances)
	for _, t := range a.Summary.Tags {
		m.IncTag(string(t.Family), string(t.State))
	}
}

// Result is the outcome of one symbol in AnalyzeAll.
type Result struct {
	Symbol   string
	Analysis *model.Analysis
	Err      error
}

// AnalyzeAll analyzes symbols concurrently. Each symbol is independent: a
// failure is reported in its Result and does not stop the others. Results
// keep the order of symbols.
func (c *Collector) AnalyzeAll(ctx context.Context, symbols []string) []Result {
	results := make([]Result, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			a, err := c.Analyze(gctx, sym)
			results[i] = Result{Symbol: strings.ToUpper(strings.TrimSpace(sym)), Analysis: a, Err: err}
			if err != nil {
				c.logger.Warn().Err(err).Str("symbol", results[i].Symbol).Msg("analysis failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
