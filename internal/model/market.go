package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedInput is returned when a bar violates its structural invariants.
var ErrMalformedInput = errors.New("malformed input")

// PriceBar represents a single daily bar.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries holds the bars of one symbol, ascending by date.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Bars) }

// Closes returns a fresh slice of close prices.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Dates returns a fresh slice of bar dates.
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		dates[i] = b.Date
	}
	return dates
}

// Validate checks every bar and the ordering of the series.
// An empty series is valid.
func (s PriceSeries) Validate() error {
	for i, b := range s.Bars {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bar %d (%s): %w", i, b.Date.Format("2006-01-02"), err)
		}
		if i > 0 && !b.Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("bar %d (%s): dates must be strictly increasing: %w",
				i, b.Date.Format("2006-01-02"), ErrMalformedInput)
		}
	}
	return nil
}

// Validate checks low <= open,close <= high with positive finite prices.
func (b PriceBar) Validate() error {
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("non-finite price: %w", ErrMalformedInput)
		}
		if p <= 0 {
			return fmt.Errorf("price %.4f must be positive: %w", p, ErrMalformedInput)
		}
	}
	if b.High < b.Low {
		return fmt.Errorf("high %.4f < low %.4f: %w", b.High, b.Low, ErrMalformedInput)
	}
	if b.Open < b.Low || b.Open > b.High {
		return fmt.Errorf("open %.4f outside [%.4f, %.4f]: %w", b.Open, b.Low, b.High, ErrMalformedInput)
	}
	if b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("close %.4f outside [%.4f, %.4f]: %w", b.Close, b.Low, b.High, ErrMalformedInput)
	}
	if b.Volume < 0 {
		return fmt.Errorf("negative volume %d: %w", b.Volume, ErrMalformedInput)
	}
	return nil
}
