package notifier

import (
	"encoding/csv"
	"io"
	"strconv"

	"MarketLens/internal/model"
)

var csvHeader = []string{
	"date", "open", "high", "low", "close", "volume",
	"ema12", "ema26", "macd", "signal", "histogram",
	"sma20", "bb_upper", "bb_lower", "rsi",
}

func csvCell(v model.Value) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.V, 'f', -1, 64)
}

// WriteCSV writes the frame with one row per bar. Undefined cells are empty.
func WriteCSV(w io.Writer, f *model.IndicatorFrame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := 0; i < f.Len(); i++ {
		bar := f.Bars[i]
		r := f.Row(i)
		record := []string{
			bar.Date.Format("2006-01-02"),
			strconv.FormatFloat(bar.Open, 'f', -1, 64),
			strconv.FormatFloat(bar.High, 'f', -1, 64),
			strconv.FormatFloat(bar.Low, 'f', -1, 64),
			strconv.FormatFloat(bar.Close, 'f', -1, 64),
			strconv.FormatInt(bar.Volume, 10),
			csvCell(r.EMA12), csvCell(r.EMA26), csvCell(r.MACD), csvCell(r.Signal), csvCell(r.Histogram),
			csvCell(r.SMA20), csvCell(r.BBUpper), csvCell(r.BBLower), csvCell(r.RSI),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
