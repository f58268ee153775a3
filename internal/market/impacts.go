package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wowecon/ah-simulator/internal/observ"
)

// ImpactTable maps item names to a news-derived price-pressure score in
// [-5,5]. A nil table is valid and scores everything 0 (the "no insights"
// configuration).
type ImpactTable struct {
	scores map[string]float64 // keyed by lowercased item name
}

// Score returns the mean impact score for an item, 0 when unknown.
func (t *ImpactTable) Score(item string) float64 {
	if t == nil {
		return 0
	}
	return t.scores[strings.ToLower(item)]
}

func (t *ImpactTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.scores)
}

// NewImpactTable builds a table from already-aggregated per-item scores.
func NewImpactTable(scores map[string]float64) *ImpactTable {
	normalized := make(map[string]float64, len(scores))
	for item, score := range scores {
		normalized[strings.ToLower(item)] = clampScore(score)
	}
	return &ImpactTable{scores: normalized}
}

// LoadImpactScores reads a CSV with affected_item and impact_score columns and
// aggregates the per-item mean, clamped to [-5,5]. Item matching is
// case-insensitive. Bad rows are dropped and counted.
func LoadImpactScores(path string) (*ImpactTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open impact scores: %w", err)
	}
	defer f.Close()

	t, err := ReadImpactScores(f)
	if err != nil {
		return nil, fmt.Errorf("read impact scores %s: %w", path, err)
	}
	return t, nil
}

func ReadImpactScores(r io.Reader) (*ImpactTable, error) {
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
	itemCol, ok := col["affected_item"]
	if !ok {
		return nil, fmt.Errorf("missing column %q", "affected_item")
	}
	scoreCol, ok := col["impact_score"]
	if !ok {
		return nil, fmt.Errorf("missing column %q", "impact_score")
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	dropped := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil || itemCol >= len(rec) || scoreCol >= len(rec) {
			dropped++
			observ.IncCounter("impact_rows_dropped_total", map[string]string{"reason": "malformed_csv"})
			continue
		}
		item := strings.ToLower(strings.TrimSpace(rec[itemCol]))
		score, perr := strconv.ParseFloat(strings.TrimSpace(rec[scoreCol]), 64)
		if item == "" || perr != nil {
			dropped++
			observ.IncCounter("impact_rows_dropped_total", map[string]string{"reason": "bad_row"})
			continue
		}
		sums[item] += score
		counts[item]++
	}

	scores := make(map[string]float64, len(sums))
	for item, sum := range sums {
		scores[item] = clampScore(sum / float64(counts[item]))
	}
	observ.Log("impact_scores_loaded", map[string]any{"items": len(scores), "dropped": dropped})
	return &ImpactTable{scores: scores}, nil
}

func clampScore(s float64) float64 {
	if s > 5 {
		return 5
	}
	if s < -5 {
		return -5
	}
	return s
}
