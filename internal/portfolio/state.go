// Package portfolio holds the trader state a simulation run mutates: gold,
// per-item inventory positions and the append-only trade log.
package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Position is the held inventory for one item. Invariant: Quantity == 0
// implies AvgCost == 0. AvgCost is the quantity-weighted mean acquisition
// cost and only changes on BUY.
type Position struct {
	Quantity int64   `json:"quantity"`
	AvgCost  float64 `json:"avg_cost"`
}

// Trade is one applied order. GoldAfter records the gold balance after the
// trade was applied, in processing order.
type Trade struct {
	Timestamp time.Time `json:"timestamp"`
	Item      string    `json:"item"`
	Action    string    `json:"action"`
	Price     float64   `json:"price"`
	Quantity  int64     `json:"qty"`
	GoldAfter float64   `json:"gold"`
	Reason    string    `json:"reason"`
}

// State is the full trader state for a single run. Construct with New, mutate
// only through ApplyBuy/ApplySell, read freely after the replay finishes.
type State struct {
	Gold      float64
	TradeLog  []Trade
	positions map[string]Position
}

func New(startingGold float64) *State {
	return &State{
		Gold:      startingGold,
		positions: map[string]Position{},
	}
}

// Position returns the current position for an item, zero-valued when the
// item has never been held.
func (s *State) Position(item string) Position {
	return s.positions[item]
}

// Positions returns a copy of all non-empty positions.
func (s *State) Positions() map[string]Position {
	out := make(map[string]Position, len(s.positions))
	for item, pos := range s.positions {
		if pos.Quantity > 0 {
			out[item] = pos
		}
	}
	return out
}

// ApplyBuy spends qty*price gold, folds the purchase into the weighted
// average cost and appends a BUY trade. The caller has already validated
// affordability; ApplyBuy rejects anything that would drive gold negative.
func (s *State) ApplyBuy(ts time.Time, item string, price float64, qty int64, reason string) error {
	if qty <= 0 {
		return fmt.Errorf("buy %s: non-positive quantity %d", item, qty)
	}
	cost := float64(qty) * price
	if cost > s.Gold {
		return fmt.Errorf("buy %s: cost %.2f exceeds gold %.2f", item, cost, s.Gold)
	}

	pos := s.positions[item]
	newQty := pos.Quantity + qty
	pos.AvgCost = (pos.AvgCost*float64(pos.Quantity) + cost) / float64(newQty)
	pos.Quantity = newQty
	s.positions[item] = pos
	s.Gold -= cost

	s.TradeLog = append(s.TradeLog, Trade{
		Timestamp: ts, Item: item, Action: ActionBuy,
		Price: price, Quantity: qty, GoldAfter: s.Gold, Reason: reason,
	})
	return nil
}

// ApplySell banks qty*price gold, shrinks the position and appends a SELL
// trade. Selling a position down to zero resets its average cost.
func (s *State) ApplySell(ts time.Time, item string, price float64, qty int64, reason string) error {
	pos := s.positions[item]
	if qty <= 0 {
		return fmt.Errorf("sell %s: non-positive quantity %d", item, qty)
	}
	if qty > pos.Quantity {
		return fmt.Errorf("sell %s: quantity %d exceeds held %d", item, qty, pos.Quantity)
	}

	pos.Quantity -= qty
	if pos.Quantity == 0 {
		pos.AvgCost = 0
	}
	s.positions[item] = pos
	s.Gold += float64(qty) * price

	s.TradeLog = append(s.TradeLog, Trade{
		Timestamp: ts, Item: item, Action: ActionSell,
		Price: price, Quantity: qty, GoldAfter: s.Gold, Reason: reason,
	})
	return nil
}

// HoldingsValue marks open inventory to the given prices. Items with no known
// market price fall back to their average cost, so illiquid holdings are not
// valued at zero.
func (s *State) HoldingsValue(prices map[string]float64) float64 {
	total := 0.0
	for item, pos := range s.positions {
		if pos.Quantity <= 0 {
			continue
		}
		price, ok := prices[item]
		if !ok {
			price = pos.AvgCost
		}
		total += float64(pos.Quantity) * price
	}
	return total
}

// TotalValue is gold plus marked holdings.
func (s *State) TotalValue(prices map[string]float64) float64 {
	return s.Gold + s.HoldingsValue(prices)
}

type stateFile struct {
	Gold      float64             `json:"gold"`
	Positions map[string]Position `json:"positions"`
	TradeLog  []Trade             `json:"trade_log"`
}

// Save writes a JSON snapshot of the final state, atomically via temp+rename.
func (s *State) Save(path string) error {
	data, err := json.MarshalIndent(stateFile{
		Gold:      s.Gold,
		Positions: s.Positions(),
		TradeLog:  s.TradeLog,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// LoadState reads a snapshot written by Save.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var sf stateFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	st := &State{Gold: sf.Gold, TradeLog: sf.TradeLog, positions: sf.Positions}
	if st.positions == nil {
		st.positions = map[string]Position{}
	}
	return st, nil
}
