// Package export writes simulation outputs as tabular files: the trade log as
// CSV or JSONL, and comparator run results as CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/wowecon/ah-simulator/internal/compare"
	"github.com/wowecon/ah-simulator/internal/portfolio"
)

// WriteTradeLogCSV writes the trade log in processing order.
func WriteTradeLogCSV(path string, trades []portfolio.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trade log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "item", "action", "price", "qty", "gold", "reason"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range trades {
		row := []string{
			t.Timestamp.Format(time.RFC3339),
			t.Item,
			t.Action,
			strconv.FormatFloat(t.Price, 'f', -1, 64),
			strconv.FormatInt(t.Quantity, 10),
			strconv.FormatFloat(t.GoldAfter, 'f', -1, 64),
			t.Reason,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteTradeLogJSONL appends one JSON object per trade, outbox-style.
func WriteTradeLogJSONL(path string, trades []portfolio.Trade) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open trade jsonl: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, t := range trades {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encode trade: %w", err)
		}
	}
	return nil
}

// WriteRunResultsCSV writes per-run comparator outcomes.
func WriteRunResultsCSV(path string, results []compare.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create run results: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"model", "run", "final_gold", "portfolio_value", "total_value", "trades"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.Model,
			strconv.Itoa(r.Run),
			strconv.FormatFloat(r.FinalGold, 'f', 2, 64),
			strconv.FormatFloat(r.PortfolioValue, 'f', 2, 64),
			strconv.FormatFloat(r.TotalValue, 'f', 2, 64),
			strconv.Itoa(r.Trades),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
