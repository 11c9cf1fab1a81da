package domain

import (
	"sort"
	"time"
)

// PricePoint is one observation of a daily price history.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
}

// PriceSeries is an ordered sequence of price observations.
type PriceSeries []PricePoint

// Sort orders the series ascending by timestamp. Idempotent.
func (s PriceSeries) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}

// Prices returns the price values in series order.
func (s PriceSeries) Prices() []float64 {
	prices := make([]float64, len(s))
	for i, p := range s {
		prices[i] = p.Price
	}
	return prices
}
