// Package chart renders an analysis as an interactive HTML page.
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
	"MarketLens/internal/strategy"
)

const (
	chartWidth  = "1100px"
	chartHeight = "420px"
)

// Options controls the reference lines drawn on the RSI panel.
type Options struct {
	Thresholds strategy.Thresholds
}

func dates(f *model.IndicatorFrame) []string {
	out := make([]string, f.Len())
	for i, b := range f.Bars {
		out[i] = b.Date.Format("2006-01-02")
	}
	return out
}

// lineData maps undefined cells to nil so the line shows a gap.
func lineData(vs []model.Value) []opts.LineData {
	out := make([]opts.LineData, len(vs))
	for i, v := range vs {
		if v.Valid {
			out[i] = opts.LineData{Value: v.V}
		} else {
			out[i] = opts.LineData{Value: nil}
		}
	}
	return out
}

func barData(vs []model.Value) []opts.BarData {
	out := make([]opts.BarData, len(vs))
	for i, v := range vs {
		if v.Valid {
			out[i] = opts.BarData{Value: v.V}
		} else {
			out[i] = opts.BarData{Value: nil}
		}
	}
	return out
}

func globalOpts(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", Start: 0, End: 100}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	}
}

// PriceBands draws the close with the SMA and both Bollinger bands.
func PriceBands(f *model.IndicatorFrame) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globalOpts(f.Symbol+" Price & Bollinger Bands", "")...)
	closes := make([]model.Value, f.Len())
	for i, b := range f.Bars {
		closes[i] = model.Defined(b.Close)
	}
	line.SetXAxis(dates(f)).
		AddSeries("Close", lineData(closes)).
		AddSeries("SMA20", lineData(f.SMA20)).
		AddSeries("Upper Band", lineData(f.BBUpper)).
		AddSeries("Lower Band", lineData(f.BBLower))
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

// RSI draws the RSI with the overbought and oversold thresholds.
func RSI(f *model.IndicatorFrame, th strategy.Thresholds) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globalOpts(f.Symbol+" RSI", "")...)
	line.SetXAxis(dates(f)).
		AddSeries("RSI", lineData(f.RSI),
			charts.WithMarkLineNameYAxisItemOpts(
				opts.MarkLineNameYAxisItem{Name: "Overbought", YAxis: th.Overbought},
				opts.MarkLineNameYAxisItem{Name: "Oversold", YAxis: th.Oversold},
			),
		)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

// MACD draws MACD and signal lines over the histogram bars.
func MACD(f *model.IndicatorFrame) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globalOpts(f.Symbol+" MACD", "")...)
	line.SetXAxis(dates(f)).
		AddSeries("MACD", lineData(f.MACD)).
		AddSeries("Signal", lineData(f.Signal))
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	hist := charts.NewBar()
	hist.SetXAxis(dates(f)).AddSeries("Histogram", barData(f.Histogram))
	line.Overlap(hist)
	return line
}

// Levels draws candlesticks with a horizontal line per recent level.
func Levels(f *model.IndicatorFrame, levels []model.Level) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(globalOpts(f.Symbol+" Support & Resistance", fmt.Sprintf("%d levels", len(levels)))...)

	data := make([]opts.KlineData, f.Len())
	for i, b := range f.Bars {
		// open, close, low, high
		data[i] = opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}}
	}

	var marks []opts.MarkLineNameYAxisItem
	for _, l := range calculator.RecentLevels(levels, 10) {
		marks = append(marks, opts.MarkLineNameYAxisItem{
			Name:  fmt.Sprintf("%s %s", l.Kind, l.Date.Format("2006-01-02")),
			YAxis: l.Price,
		})
	}
	var seriesOpts []charts.SeriesOpts
	if len(marks) > 0 {
		seriesOpts = append(seriesOpts, charts.WithMarkLineNameYAxisItemOpts(marks...))
	}
	kline.SetXAxis(dates(f)).AddSeries("OHLC", data, seriesOpts...)
	return kline
}

// Render writes a page with every panel of the analysis to w.
func Render(w io.Writer, a *model.Analysis, o Options) error {
	if a == nil || a.Frame == nil {
		return fmt.Errorf("chart: nothing to render")
	}
	th := o.Thresholds
	if th == (strategy.Thresholds{}) {
		th = strategy.DefaultThresholds()
	}

	page := components.NewPage()
	page.PageTitle = a.Symbol + " technical analysis"
	page.AddCharts(
		PriceBands(a.Frame),
		RSI(a.Frame, th),
		MACD(a.Frame),
		Levels(a.Frame, a.Levels),
	)
	return page.Render(w)
}
