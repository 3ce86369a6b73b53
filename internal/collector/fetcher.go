package collector

import "context"

// PriceFeed fetches the gold spot price in USD per troy ounce.
type PriceFeed interface {
	FetchSpotPrice(ctx context.Context) (float64, error)
	Name() string
}

// RateFeed fetches USD-based exchange rates keyed by currency code.
type RateFeed interface {
	FetchRates(ctx context.Context) (map[string]float64, error)
	Name() string
}
