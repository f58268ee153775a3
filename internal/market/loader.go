package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wowecon/ah-simulator/internal/observ"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// LoadObservations reads an observation table from a CSV file with a header
// row containing timestamp, item_name, market_value, min_buyout and quantity
// columns (any order). Rows with missing or unparseable required fields are
// dropped and counted, never fatal; an empty result is an error.
func LoadObservations(path string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open observations: %w", err)
	}
	defer f.Close()

	obs, err := ReadObservations(f)
	if err != nil {
		return nil, fmt.Errorf("read observations %s: %w", path, err)
	}
	return obs, nil
}

func ReadObservations(r io.Reader) ([]Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"timestamp", "item_name", "market_value", "min_buyout", "quantity"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var obs []Observation
	dropped := 0
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			dropRow(line, "malformed_csv")
			dropped++
			continue
		}
		o, reason := parseRow(rec, col)
		if reason != "" {
			dropRow(line, reason)
			dropped++
			continue
		}
		obs = append(obs, o)
	}

	if len(obs) == 0 {
		return nil, fmt.Errorf("no usable observation rows (%d dropped)", dropped)
	}
	observ.Log("observations_loaded", map[string]any{"rows": len(obs), "dropped": dropped})
	return obs, nil
}

func parseRow(rec []string, col map[string]int) (Observation, string) {
	field := func(name string) string {
		i := col[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	ts, err := parseTimestamp(field("timestamp"))
	if err != nil {
		return Observation{}, "bad_timestamp"
	}
	item := field("item_name")
	if item == "" {
		return Observation{}, "missing_item"
	}
	mv, err := strconv.ParseFloat(field("market_value"), 64)
	if err != nil || mv < 0 {
		return Observation{}, "bad_market_value"
	}
	mb, err := strconv.ParseFloat(field("min_buyout"), 64)
	if err != nil || mb < 0 {
		return Observation{}, "bad_min_buyout"
	}
	qty, err := strconv.ParseInt(field("quantity"), 10, 64)
	if err != nil || qty < 0 {
		return Observation{}, "bad_quantity"
	}

	return Observation{Timestamp: ts, Item: item, MarketValue: mv, MinBuyout: mb, Quantity: qty}, ""
}

func dropRow(line int, reason string) {
	observ.IncCounter("observation_rows_dropped_total", map[string]string{"reason": reason})
	observ.Log("observation_row_dropped", map[string]any{"line": line, "reason": reason})
}
