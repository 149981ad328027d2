package notifier

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
)

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Title.Align = text.AlignCenter
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func stateOf(s model.Summary, f model.Family) string {
	if tag, ok := s.Lookup(f); ok {
		return string(tag.State)
	}
	return "-"
}

// RenderIndicatorTable renders the last n rows of the frame for a console.
func RenderIndicatorTable(f *model.IndicatorFrame, n int) string {
	t := newTable(f.Symbol)
	t.AppendHeader(table.Row{"Date", "Close", "RSI", "MACD", "Signal", "Hist", "SMA20", "BB Lower", "BB Upper"})
	start := f.Len() - n
	if start < 0 || n <= 0 {
		start = 0
	}
	for i := start; i < f.Len(); i++ {
		r := f.Row(i)
		t.AppendRow(table.Row{
			r.Date.Format("2006-01-02"),
			formatValue(r.Close, 2),
			formatValue(r.RSI, 2),
			formatValue(r.MACD, 4),
			formatValue(r.Signal, 4),
			formatValue(r.Histogram, 4),
			formatValue(r.SMA20, 2),
			formatValue(r.BBLower, 2),
			formatValue(r.BBUpper, 2),
		})
	}
	t.SetColumnConfigs(numericColumns(2, 9))
	return t.Render()
}

// RenderLevels renders the most recent levels as a table.
func RenderLevels(levels []model.Level) string {
	t := newTable("Support & Resistance")
	t.AppendHeader(table.Row{"Date", "Kind", "Price"})
	recent := calculator.RecentLevels(levels, maxListedLevels)
	if len(recent) == 0 {
		t.AppendRow(table.Row{"-", "none", "-"})
	}
	for _, l := range recent {
		t.AppendRow(table.Row{l.Date.Format("2006-01-02"), string(l.Kind), Price(l.Price)})
	}
	return t.Render()
}

// RenderComparison renders one line per analysis with the latest values and
// every summary state side by side.
func RenderComparison(analyses []*model.Analysis) string {
	t := newTable("Comparison")
	t.AppendHeader(table.Row{"Symbol", "Close", "RSI", "Bollinger", "Trend", "RSI State", "MACD", "Histogram", "Levels"})
	for _, a := range analyses {
		row, ok := a.Frame.Latest()
		closeStr := "-"
		if ok {
			closeStr = Price(row.Close.V)
		}
		t.AppendRow(table.Row{
			a.Symbol,
			closeStr,
			formatValue(row.RSI, 2),
			stateOf(a.Summary, model.FamilyBollinger),
			stateOf(a.Summary, model.FamilyTrend),
			stateOf(a.Summary, model.FamilyRSI),
			stateOf(a.Summary, model.FamilyMACD),
			stateOf(a.Summary, model.FamilyHistogram),
			fmt.Sprintf("%d", len(a.Levels)),
		})
	}
	t.SortBy([]table.SortBy{{Name: "Symbol", Mode: table.Asc}})
	return t.Render()
}

func numericColumns(from, to int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, 0, to-from+1)
	for n := from; n <= to; n++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	return cfgs
}
