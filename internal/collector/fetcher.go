package collector

import (
	"context"
	"fmt"

	"MarketLens/internal/model"
)

// Fetcher supplies daily bars for a symbol, ascending by date.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) (model.PriceSeries, error)
	Name() string
}

// NewFetcher builds the fetcher of a provider: "yahoo", "rest" or "mock".
func NewFetcher(provider, baseURL, apiKey string, opts ClientOptions) (Fetcher, error) {
	switch provider {
	case "", "yahoo":
		f := NewYahooFetcher(opts)
		if baseURL != "" && provider == "yahoo" {
			f.BaseURL = baseURL
		}
		return f, nil
	case "rest":
		if baseURL == "" {
			return nil, fmt.Errorf("rest provider needs a base url")
		}
		return NewRESTFetcher(baseURL, apiKey, opts), nil
	case "mock":
		return &MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", provider)
	}
}
