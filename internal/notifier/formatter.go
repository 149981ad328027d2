package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"MarketLens/internal/calculator"
	"MarketLens/internal/model"
	"MarketLens/internal/recorder"
)

// maxListedLevels is how many of the most recent levels a report lists.
const maxListedLevels = 5

var tagProse = map[model.Tag]string{
	{Family: model.FamilyBollinger, State: model.StateOverbought}:        "Price is stretched above the Bollinger Bands (overbought zone).",
	{Family: model.FamilyBollinger, State: model.StateOversold}:          "Price is below the lower Bollinger Band (possible oversold).",
	{Family: model.FamilyBollinger, State: model.StateNeutral}:           "Price is inside the Bollinger Bands.",
	{Family: model.FamilyTrend, State: model.StateBullish}:               "Short-term trend is bullish.",
	{Family: model.FamilyTrend, State: model.StateBearish}:               "Short-term trend is bearish.",
	{Family: model.FamilyRSI, State: model.StateOverbought}:              "RSI indicates overbought market conditions.",
	{Family: model.FamilyRSI, State: model.StateOversold}:                "RSI indicates oversold momentum.",
	{Family: model.FamilyRSI, State: model.StateNeutral}:                 "RSI is neutral.",
	{Family: model.FamilyMACD, State: model.StateBullish}:                "MACD suggests bullish acceleration.",
	{Family: model.FamilyMACD, State: model.StateBearish}:                "MACD suggests bearish momentum.",
	{Family: model.FamilyHistogram, State: model.StateMomentumBuilding}:  "MACD histogram is positive: upward momentum is building.",
	{Family: model.FamilyHistogram, State: model.StateMomentumWeakening}: "MACD histogram is not positive: trend may be weakening.",
}

// TagProse returns the sentence shown for a tag.
func TagProse(t model.Tag) string {
	if s, ok := tagProse[t]; ok {
		return s
	}
	return fmt.Sprintf("%s is %s.", t.Family, strings.ReplaceAll(string(t.State), "_", " "))
}

// Price formats a price with two decimals and a dollar sign.
func Price(p float64) string {
	return "$" + decimal.NewFromFloat(p).StringFixed(2)
}

func formatValue(v model.Value, places int32) string {
	if !v.Valid {
		return "n/a"
	}
	return decimal.NewFromFloat(v.V).StringFixed(places)
}

// LevelLine renders one level, e.g. "Support at $101.25 (2024-03-01)".
func LevelLine(l model.Level) string {
	kind := string(l.Kind)
	return fmt.Sprintf("%s%s at %s (%s)", strings.ToUpper(kind[:1]), kind[1:], Price(l.Price), l.Date.Format("2006-01-02"))
}

// FormatInsufficientData is sent when a series is too short for any indicator.
func FormatInsufficientData(symbol string, bars int) string {
	return fmt.Sprintf("⚠️ Insufficient data to analyze %s: only %d bars available.", html.EscapeString(symbol), bars)
}

// FormatReport renders an analysis into a Telegram HTML message.
func FormatReport(a *model.Analysis) string {
	if a.InsufficientData() {
		return FormatInsufficientData(a.Symbol, a.Frame.Len())
	}
	row, _ := a.Frame.Latest()

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(a.Symbol), row.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Close: %s\n", Price(row.Close.V)))

	if hi, lo, err := calculator.PriceRange(a.Frame.Bars, calculator.TradingDaysPerYear); err == nil {
		pos, _ := calculator.RangePosition(row.Close.V, hi, lo)
		b.WriteString(fmt.Sprintf("52w range: %s - %s (position %.0f%%)\n", Price(lo), Price(hi), pos*100))
	}

	b.WriteString("\n📈 <b>Indicators</b>\n")
	b.WriteString(fmt.Sprintf("  RSI: %s\n", formatValue(row.RSI, 2)))
	b.WriteString(fmt.Sprintf("  MACD: %s | Signal: %s | Hist: %s\n",
		formatValue(row.MACD, 4), formatValue(row.Signal, 4), formatValue(row.Histogram, 4)))
	b.WriteString(fmt.Sprintf("  SMA20: %s | Bands: %s / %s\n",
		formatValue(row.SMA20, 2), formatValue(row.BBLower, 2), formatValue(row.BBUpper, 2)))

	b.WriteString("\n🧱 <b>Support &amp; Resistance</b>\n")
	b.WriteString(FormatLevels(a.Levels))

	b.WriteString("\n🧭 <b>Summary</b>\n")
	for _, t := range a.Summary.Tags {
		b.WriteString("  - " + TagProse(t) + "\n")
	}
	return b.String()
}

// FormatLevels lists the most recent levels, one per line.
func FormatLevels(levels []model.Level) string {
	if len(levels) == 0 {
		return "  No strong support or resistance levels detected.\n"
	}
	var b strings.Builder
	for _, l := range calculator.RecentLevels(levels, maxListedLevels) {
		b.WriteString("  " + LevelLine(l) + "\n")
	}
	return b.String()
}

// FormatWatchlist renders the watched symbols.
func FormatWatchlist(symbols []string) string {
	if len(symbols) == 0 {
		return "👀 Watchlist is empty. Use /watch SYMBOL to add one."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("👀 <b>Watchlist</b> (%d)\n", len(symbols)))
	for _, s := range symbols {
		b.WriteString("  • " + html.EscapeString(s) + "\n")
	}
	return b.String()
}

// FormatHelp lists the supported bot commands.
func FormatHelp() string {
	return "📖 <b>Commands</b>\n" +
		"/analyze SYMBOL - run a technical analysis now\n" +
		"/watch SYMBOL - add a symbol to the daily watchlist\n" +
		"/unwatch SYMBOL - remove a symbol from the watchlist\n" +
		"/list - show the watchlist\n" +
		"/help - show this message"
}

// FormatError renders a failure for one symbol.
func FormatError(symbol string, err error) string {
	return fmt.Sprintf("❌ %s: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

// FormatDigest renders one compact line per analysis.
func FormatDigest(analyses []*model.Analysis) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗞 <b>Watchlist digest</b> (%d)\n\n", len(analyses)))
	for _, a := range analyses {
		row, ok := a.Frame.Latest()
		if !ok || a.InsufficientData() {
			b.WriteString(fmt.Sprintf("<b>%s</b>: insufficient data\n", html.EscapeString(a.Symbol)))
			continue
		}
		states := make([]string, len(a.Summary.Tags))
		for i, t := range a.Summary.Tags {
			states[i] = fmt.Sprintf("%s %s", t.Family, strings.ReplaceAll(string(t.State), "_", " "))
		}
		b.WriteString(fmt.Sprintf("<b>%s</b> %s RSI %s | %s\n",
			html.EscapeString(a.Symbol), Price(row.Close.V), formatValue(row.RSI, 2), strings.Join(states, ", ")))
	}
	return b.String()
}

// FormatHistory renders recorded runs of one symbol, newest first.
func FormatHistory(symbol string, runs []recorder.Run) string {
	if len(runs) == 0 {
		return fmt.Sprintf("No recorded analyses for %s.", html.EscapeString(symbol))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕘 <b>%s history</b>\n", html.EscapeString(symbol)))
	for _, r := range runs {
		price := "n/a"
		if r.Close.Valid {
			price = Price(r.Close.V)
		}
		b.WriteString(fmt.Sprintf("  %s %s RSI %s, %d tags, %d levels\n",
			r.AnalyzedAt.Format("2006-01-02 15:04"), price, formatValue(r.RSI, 2), len(r.Tags), r.Levels))
	}
	return b.String()
}
