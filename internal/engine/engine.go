// Package engine replays derived observations through the sell-then-buy
// trading policy. The engine itself is stateless control flow; everything it
// mutates lives in the portfolio.State it is handed.
package engine

import (
	"fmt"

	"github.com/wowecon/ah-simulator/internal/indicator"
	"github.com/wowecon/ah-simulator/internal/observ"
	"github.com/wowecon/ah-simulator/internal/portfolio"
)

// Signal thresholds of the policy. The deviation band and the hour windows
// are part of the strategy itself, not tunables.
const (
	sellDeviation = 0.10
	buyDeviation  = -0.10
)

// Params are the per-trade risk caps: never sell more than MaxSellFraction of
// the server's visible supply in one tick, never commit more than
// BuyBudgetFraction of current gold to one buy.
type Params struct {
	MaxSellFraction   float64
	BuyBudgetFraction float64
}

// Run replays ticks in order, applying the SELL pass then the BUY pass within
// each tick. Sale proceeds realized in the sell pass fund purchases in the
// same tick's buy pass; that ordering is load-bearing.
func Run(ticks []indicator.Tick, st *portfolio.State, p Params) {
	for _, tick := range ticks {
		sellPass(tick, st, p)
		buyPass(tick, st, p)
	}
}

// sellEligible: deviation spike, or the Wednesday/Thursday 15:00-17:59
// post-reset demand window.
func sellEligible(row indicator.Derived) bool {
	if row.Dev.Above(sellDeviation) {
		return true
	}
	return (row.DayOfWeek == 2 || row.DayOfWeek == 3) && row.Hour >= 15 && row.Hour <= 17
}

// buyEligible: deviation dip during the low-population overnight window
// 03:00-06:59 or the weekly reset.
func buyEligible(row indicator.Derived) bool {
	if !row.Dev.Below(buyDeviation) {
		return false
	}
	return (row.Hour >= 3 && row.Hour <= 6) || row.WeeklyReset
}

func sellPass(tick indicator.Tick, st *portfolio.State, p Params) {
	for _, row := range tick.Rows {
		if !sellEligible(row) {
			continue
		}
		pos := st.Position(row.Item)
		if pos.Quantity <= 0 {
			continue
		}
		maxSell := int64(p.MaxSellFraction * float64(row.Quantity))
		sellQty := min(pos.Quantity, maxSell)
		if sellQty <= 0 {
			observ.IncCounter("trades_skipped_total", map[string]string{"action": "SELL", "reason": "zero_qty"})
			continue
		}
		if err := st.ApplySell(tick.Timestamp, row.Item, row.MarketValue, sellQty, "MA spike or post-reset"); err != nil {
			continue
		}
		observ.IncCounter("trades_executed_total", map[string]string{"action": "SELL"})
	}
}

func buyPass(tick indicator.Tick, st *portfolio.State, p Params) {
	for _, row := range tick.Rows {
		if !buyEligible(row) {
			continue
		}
		price := row.MarketValue
		if price <= 0 {
			observ.IncCounter("trades_skipped_total", map[string]string{"action": "BUY", "reason": "zero_price"})
			continue
		}

		// Impact scores bias the budget towards items the news favors.
		multiplier := 1 + row.Impact/10
		budget := p.BuyBudgetFraction * st.Gold * multiplier
		qty := min(row.Quantity, int64(budget/price))
		if qty <= 0 {
			observ.IncCounter("trades_skipped_total", map[string]string{"action": "BUY", "reason": "zero_qty"})
			continue
		}
		if float64(qty)*price > st.Gold {
			observ.IncCounter("trades_skipped_total", map[string]string{"action": "BUY", "reason": "insufficient_gold"})
			continue
		}

		reason := "MA dip + low hour"
		if row.Impact != 0 {
			reason = fmt.Sprintf("MA dip + impact score %g", row.Impact)
		}
		if err := st.ApplyBuy(tick.Timestamp, row.Item, price, qty, reason); err != nil {
			continue
		}
		observ.IncCounter("trades_executed_total", map[string]string{"action": "BUY"})
	}
}
