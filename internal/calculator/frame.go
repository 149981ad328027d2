package calculator

import (
	"fmt"

	"MarketLens/internal/model"
)

// Params configures the indicator engine and the level detector.
type Params struct {
	RSIPeriod  int        `yaml:"rsi_period"`
	MACD       MACDParams `yaml:"macd"`
	BBWindow   int        `yaml:"bb_window"`
	BBK        float64    `yaml:"bb_k"`
	LevelOrder int        `yaml:"level_order"`
}

// DefaultParams returns RSI 14, MACD 12/26/9, Bollinger 20/2 and level order 10.
func DefaultParams() Params {
	return Params{
		RSIPeriod:  14,
		MACD:       DefaultMACDParams(),
		BBWindow:   20,
		BBK:        2,
		LevelOrder: 10,
	}
}

// Validate rejects parameters no indicator can run with.
func (p Params) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"rsi", p.RSIPeriod},
		{"macd fast", p.MACD.Fast},
		{"macd slow", p.MACD.Slow},
		{"macd signal", p.MACD.Signal},
		{"bollinger", p.BBWindow},
	}
	for _, c := range checks {
		if c.value < 1 {
			return invalidPeriod(c.name, c.value)
		}
	}
	if p.LevelOrder < 1 {
		return fmt.Errorf("level order %d: %w", p.LevelOrder, ErrInvalidOrder)
	}
	if p.BBK < 0 {
		return fmt.Errorf("bollinger k %.2f must not be negative", p.BBK)
	}
	return nil
}

// Compute derives every indicator column from the series. The input is never
// mutated; the frame owns freshly allocated slices.
func Compute(series model.PriceSeries, p Params) (*model.IndicatorFrame, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	closes := series.Closes()

	bb, err := Bollinger(closes, p.BBWindow, p.BBK)
	if err != nil {
		return nil, fmt.Errorf("bollinger: %w", err)
	}
	rsi, err := RSI(closes, p.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	macd, err := MACD(closes, p.MACD)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}

	bars := make([]model.PriceBar, len(series.Bars))
	copy(bars, series.Bars)

	return &model.IndicatorFrame{
		Symbol:    series.Symbol,
		Bars:      bars,
		EMA12:     macd.EMAFast,
		EMA26:     macd.EMASlow,
		MACD:      macd.MACD,
		Signal:    macd.Signal,
		Histogram: macd.Histogram,
		SMA20:     bb.Middle,
		BBUpper:   bb.Upper,
		BBLower:   bb.Lower,
		RSI:       rsi,
	}, nil
}
