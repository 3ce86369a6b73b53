package collector

import "context"

// MockFeed returns controllable fixed data for development and testing.
type MockFeed struct {
	Price    float64
	Rates    map[string]float64
	PriceErr error
	RatesErr error
}

func (m *MockFeed) Name() string { return "mock" }

func (m *MockFeed) FetchSpotPrice(context.Context) (float64, error) {
	if m.PriceErr != nil {
		return 0, m.PriceErr
	}
	return m.Price, nil
}

func (m *MockFeed) FetchRates(context.Context) (map[string]float64, error) {
	if m.RatesErr != nil {
		return nil, m.RatesErr
	}
	if m.Rates != nil {
		return m.Rates, nil
	}
	return map[string]float64{
		"BDT": 121.5, "USD": 1, "EUR": 0.86, "GBP": 0.75, "JPY": 150.2, "INR": 88.1,
		"CNY": 7.13, "AED": 3.6725, "AUD": 1.54, "CAD": 1.40, "CHF": 0.80, "ZAR": 17.4,
	}, nil
}
