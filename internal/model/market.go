package model

import (
	"fmt"
	"time"
)

// HistoryLength is the number of daily samples kept per currency.
const HistoryLength = 12

// OHLCSample represents a single daily candle used for charting.
type OHLCSample struct {
	Label string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Valid reports whether the candle bounds its open and close.
func (s OHLCSample) Valid() bool {
	return s.High >= max(s.Open, s.Close) && s.Low <= min(s.Open, s.Close)
}

// PricePoint is the gold price in one local currency.
type PricePoint struct {
	CurrencyCode     string       `json:"currency"`
	Symbol           string       `json:"symbol"`
	Country          string       `json:"country"`
	PriceTroyOunce   float64      `json:"price"`
	Change24hPercent float64      `json:"change24h"`
	History          []OHLCSample `json:"history,omitempty"`
	// RateFallback is set when no exchange rate was available and 1:1 was used.
	RateFallback bool `json:"rateFallback,omitempty"`
	// Synthetic marks History and Change24hPercent as generated demo data.
	Synthetic bool `json:"synthetic,omitempty"`
}

// GroundingSource is a citation returned with the sentiment summary.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// MarketSnapshot is one fully assembled market-data result. It is never
// mutated after construction; a refresh replaces it wholesale.
type MarketSnapshot struct {
	Prices       []PricePoint
	FetchedAt    time.Time
	Sources      []GroundingSource
	Summary      string
	BasePriceUSD float64
}

// Price returns the price point for the given currency code.
func (s *MarketSnapshot) Price(code string) (PricePoint, bool) {
	if s == nil {
		return PricePoint{}, false
	}
	for _, p := range s.Prices {
		if p.CurrencyCode == code {
			return p, true
		}
	}
	return PricePoint{}, false
}

// Validate checks the snapshot invariants.
func (s *MarketSnapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Prices))
	for _, p := range s.Prices {
		if p.CurrencyCode == "" {
			return fmt.Errorf("price point without currency code")
		}
		if _, dup := seen[p.CurrencyCode]; dup {
			return fmt.Errorf("duplicate currency %s", p.CurrencyCode)
		}
		seen[p.CurrencyCode] = struct{}{}
		if p.PriceTroyOunce < 0 {
			return fmt.Errorf("%s: negative price %.4f", p.CurrencyCode, p.PriceTroyOunce)
		}
		if len(p.History) != 0 && len(p.History) != HistoryLength {
			return fmt.Errorf("%s: history has %d samples, want %d", p.CurrencyCode, len(p.History), HistoryLength)
		}
		for i, h := range p.History {
			if !h.Valid() {
				return fmt.Errorf("%s: history sample %d out of bounds", p.CurrencyCode, i)
			}
		}
	}
	return nil
}
