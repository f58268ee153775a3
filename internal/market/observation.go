package market

import "time"

// Observation is one auction-house snapshot row: the going price and visible
// server supply for a single item at a single scan time. Immutable once loaded.
type Observation struct {
	Timestamp   time.Time
	Item        string
	MarketValue float64
	MinBuyout   float64
	Quantity    int64
}

// LastPrices returns the latest known market value per item. Later rows win;
// within equal timestamps the later row in slice order wins.
func LastPrices(obs []Observation) map[string]float64 {
	prices := make(map[string]float64)
	seen := make(map[string]time.Time)
	for _, o := range obs {
		if at, ok := seen[o.Item]; ok && o.Timestamp.Before(at) {
			continue
		}
		seen[o.Item] = o.Timestamp
		prices[o.Item] = o.MarketValue
	}
	return prices
}
