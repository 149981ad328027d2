package model

import "time"

// IndicatorFrame is a PriceSeries extended with date-aligned indicator columns.
// Every column has the same length as Bars.
type IndicatorFrame struct {
	Symbol    string     `json:"symbol"`
	Bars      []PriceBar `json:"bars"`
	EMA12     []Value    `json:"ema12"`
	EMA26     []Value    `json:"ema26"`
	MACD      []Value    `json:"macd"`
	Signal    []Value    `json:"signal"`
	Histogram []Value    `json:"histogram"`
	SMA20     []Value    `json:"sma20"`
	BBUpper   []Value    `json:"bb_upper"`
	BBLower   []Value    `json:"bb_lower"`
	RSI       []Value    `json:"rsi"`
}

// FrameRow is one row of an IndicatorFrame.
type FrameRow struct {
	Date      time.Time `json:"date"`
	Close     Value     `json:"close"`
	EMA12     Value     `json:"ema12"`
	EMA26     Value     `json:"ema26"`
	MACD      Value     `json:"macd"`
	Signal    Value     `json:"signal"`
	Histogram Value     `json:"histogram"`
	SMA20     Value     `json:"sma20"`
	BBUpper   Value     `json:"bb_upper"`
	BBLower   Value     `json:"bb_lower"`
	RSI       Value     `json:"rsi"`
}

func (f *IndicatorFrame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Bars)
}

// Row returns row i. It panics if i is out of range, like a slice index.
func (f *IndicatorFrame) Row(i int) FrameRow {
	return FrameRow{
		Date:      f.Bars[i].Date,
		Close:     Defined(f.Bars[i].Close),
		EMA12:     f.EMA12[i],
		EMA26:     f.EMA26[i],
		MACD:      f.MACD[i],
		Signal:    f.Signal[i],
		Histogram: f.Histogram[i],
		SMA20:     f.SMA20[i],
		BBUpper:   f.BBUpper[i],
		BBLower:   f.BBLower[i],
		RSI:       f.RSI[i],
	}
}

// Latest returns the last row, or false for an empty frame.
func (f *IndicatorFrame) Latest() (FrameRow, bool) {
	if f == nil || len(f.Bars) == 0 {
		return FrameRow{}, false
	}
	return f.Row(len(f.Bars) - 1), true
}

// AllUndefined reports whether no indicator cell in the frame is defined.
func (f *IndicatorFrame) AllUndefined() bool {
	if f == nil {
		return true
	}
	cols := [][]Value{f.EMA12, f.EMA26, f.MACD, f.Signal, f.Histogram, f.SMA20, f.BBUpper, f.BBLower, f.RSI}
	for _, col := range cols {
		for _, v := range col {
			if v.Valid {
				return false
			}
		}
	}
	return true
}
