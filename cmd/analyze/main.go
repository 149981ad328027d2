package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"MarketLens/internal/chart"
	"MarketLens/internal/collector"
	"MarketLens/internal/config"
	"MarketLens/internal/model"
	"MarketLens/internal/notifier"
	"MarketLens/internal/strategy"
)

type options struct {
	configPath string
	provider   string
	days       int
	order      int
	rows       int
	chartPath  string
	csvPath    string
	jsonOut    bool
	timeout    time.Duration
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "analyze <SYMBOL...>",
		Short: "Technical analysis of daily bars: RSI, MACD, Bollinger Bands and support/resistance",
		Example: `  analyze AAPL
  analyze AAPL MSFT NVDA --days 365
  analyze SPX --order 5 --chart spx.html --csv spx.csv`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "configs/config.yaml", "config file")
	f.StringVar(&opts.provider, "provider", "", "data provider: yahoo, rest or mock (overrides config)")
	f.IntVar(&opts.days, "days", 0, "number of daily bars to fetch (overrides config)")
	f.IntVar(&opts.order, "order", 0, "support/resistance window half-width (overrides config)")
	f.IntVar(&opts.rows, "rows", 10, "indicator rows to print per symbol")
	f.StringVar(&opts.chartPath, "chart", "", "write an HTML chart of the first symbol to this file")
	f.StringVar(&opts.csvPath, "csv", "", "write the indicator frame of the first symbol as CSV to this file")
	f.BoolVar(&opts.jsonOut, "json", false, "print analyses as JSON")
	f.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall timeout")
	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options, symbols []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.provider != "" {
		cfg.DataSource.Provider = opts.provider
	}
	if opts.days > 0 {
		cfg.DataSource.Days = opts.days
	}
	if opts.order > 0 {
		cfg.Indicators.LevelOrder = opts.order
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.BaseURL, cfg.DataSource.APIKey,
		collector.ClientOptions{
			Timeout:        cfg.DataSource.Timeout,
			RequestsPerSec: cfg.DataSource.RequestsPerSec,
			Proxy:          cfg.Proxy,
		})
	if err != nil {
		return err
	}
	col := collector.NewCollector(fetcher, collector.Options{
		Days:       cfg.DataSource.Days,
		Params:     cfg.Indicators.Params,
		Thresholds: cfg.Indicators.Thresholds,
	})

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	results := col.AnalyzeAll(ctx, symbols)

	var analyses []*model.Analysis
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", r.Symbol, r.Err)
			continue
		}
		analyses = append(analyses, r.Analysis)
	}

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(analyses); err != nil {
			return err
		}
	} else {
		for _, a := range analyses {
			printAnalysis(out, a, opts.rows)
		}
		if len(analyses) > 1 {
			fmt.Fprintln(out, notifier.RenderComparison(analyses))
		}
	}

	if len(analyses) > 0 {
		if err := writeArtifacts(analyses[0], opts, cfg.Indicators.Thresholds); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d symbols failed", failed, len(symbols))
	}
	return nil
}

func printAnalysis(out io.Writer, a *model.Analysis, rows int) {
	if a.InsufficientData() {
		fmt.Fprintln(out, notifier.FormatInsufficientData(a.Symbol, a.Frame.Len()))
		return
	}
	fmt.Fprintln(out, notifier.RenderIndicatorTable(a.Frame, rows))
	fmt.Fprintln(out, notifier.RenderLevels(a.Levels))
	fmt.Fprintln(out, "Summary:")
	for _, t := range a.Summary.Tags {
		fmt.Fprintln(out, "  - "+notifier.TagProse(t))
	}
	fmt.Fprintln(out, strings.Repeat("-", 40))
}

func writeArtifacts(a *model.Analysis, opts *options, th strategy.Thresholds) error {
	if opts.chartPath != "" {
		f, err := os.Create(opts.chartPath)
		if err != nil {
			return fmt.Errorf("create chart: %w", err)
		}
		defer f.Close()
		if err := chart.Render(f, a, chart.Options{Thresholds: th}); err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
	}
	if opts.csvPath != "" {
		f, err := os.Create(opts.csvPath)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()
		if err := notifier.WriteCSV(f, a.Frame); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	return nil
}
