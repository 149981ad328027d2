package recorder

import (
	"time"

	"MarketLens/internal/model"
)

// Run is a stored analysis row as read back from the history.
type Run struct {
	ID         string      `json:"id"`
	Symbol     string      `json:"symbol"`
	AnalyzedAt time.Time   `json:"analyzed_at"`
	Bars       int         `json:"bars"`
	Close      model.Value `json:"close"`
	RSI        model.Value `json:"rsi"`
	MACD       model.Value `json:"macd"`
	Signal     model.Value `json:"signal"`
	Histogram  model.Value `json:"histogram"`
	Tags       []model.Tag `json:"tags"`
	Levels     int         `json:"levels"`
}

// WatchlistEvent records a watchlist mutation.
type WatchlistEvent struct {
	Action string // "ADD" or "REMOVE"
	Symbol string
	Source string // "telegram", "api"
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordAnalysis(a *model.Analysis) (string, error)
	RecordWatchlistEvent(evt *WatchlistEvent) error
	History(symbol string, limit int) ([]Run, error)
	Close() error
}
