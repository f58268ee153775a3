// Package compare runs the policy engine repeatedly under re-randomized
// quantity noise to characterize strategy variance, with and without the
// news impact scores.
package compare

import (
	"math"
	"math/rand"
	"sync"

	"github.com/wowecon/ah-simulator/internal/engine"
	"github.com/wowecon/ah-simulator/internal/indicator"
	"github.com/wowecon/ah-simulator/internal/market"
	"github.com/wowecon/ah-simulator/internal/portfolio"
)

const (
	ModelNoInsights   = "no_insights"
	ModelWithInsights = "with_insights"
)

type Config struct {
	Runs         int
	Seed         int64
	NoiseLow     float64 // multiplicative quantity noise band, e.g. [0.8,1.2)
	NoiseHigh    float64
	StartingGold float64
	Window       int
	Params       engine.Params
}

// RunResult is the terminal outcome of one simulation run. PortfolioValue is
// open holdings marked to last known prices; TotalValue adds gold.
type RunResult struct {
	Model          string
	Run            int
	FinalGold      float64
	PortfolioValue float64
	TotalValue     float64
	Trades         int
}

type Stats struct {
	Mean float64
	Std  float64
}

// Summary aggregates per model: metric name -> stats.
type Summary map[string]map[string]Stats

// NoiseObservations returns a copy of base with each quantity scaled by an
// independent uniform factor in [lo,hi) and truncated to an integer. The base
// slice is never touched; each run owns its copy.
func NoiseObservations(base []market.Observation, rng *rand.Rand, lo, hi float64) []market.Observation {
	noised := make([]market.Observation, len(base))
	for i, o := range base {
		o.Quantity = int64(float64(o.Quantity) * (lo + rng.Float64()*(hi-lo)))
		noised[i] = o
	}
	return noised
}

// Run executes cfg.Runs independent simulations per model against base.
// Runs are mutually independent and execute concurrently; each owns a private
// noised table, rng stream and trader state, so results are reproducible for
// a given seed regardless of scheduling.
func Run(cfg Config, base []market.Observation, impacts *market.ImpactTable) ([]RunResult, Summary) {
	models := []struct {
		name    string
		impacts *market.ImpactTable
	}{
		{ModelNoInsights, nil},
		{ModelWithInsights, impacts},
	}

	results := make([]RunResult, len(models)*cfg.Runs)
	var wg sync.WaitGroup
	for m, model := range models {
		for run := 0; run < cfg.Runs; run++ {
			wg.Add(1)
			go func(m, run int, name string, impacts *market.ImpactTable) {
				defer wg.Done()
				seed := cfg.Seed + int64(m*cfg.Runs+run)
				results[m*cfg.Runs+run] = simulateOnce(cfg, base, impacts, name, run, seed)
			}(m, run, model.name, model.impacts)
		}
	}
	wg.Wait()

	return results, Summarize(results)
}

func simulateOnce(cfg Config, base []market.Observation, impacts *market.ImpactTable, model string, run int, seed int64) RunResult {
	rng := rand.New(rand.NewSource(seed))
	noised := NoiseObservations(base, rng, cfg.NoiseLow, cfg.NoiseHigh)

	derived := indicator.Preprocess(noised, impacts, cfg.Window)
	ticks := indicator.GroupByTimestamp(derived)

	st := portfolio.New(cfg.StartingGold)
	engine.Run(ticks, st, cfg.Params)

	holdings := st.HoldingsValue(market.LastPrices(noised))
	return RunResult{
		Model:          model,
		Run:            run + 1,
		FinalGold:      st.Gold,
		PortfolioValue: holdings,
		TotalValue:     st.Gold + holdings,
		Trades:         len(st.TradeLog),
	}
}

// Summarize computes mean and sample standard deviation per metric per model.
func Summarize(results []RunResult) Summary {
	byModel := map[string]map[string][]float64{}
	for _, r := range results {
		metrics, ok := byModel[r.Model]
		if !ok {
			metrics = map[string][]float64{}
			byModel[r.Model] = metrics
		}
		metrics["final_gold"] = append(metrics["final_gold"], r.FinalGold)
		metrics["portfolio_value"] = append(metrics["portfolio_value"], r.PortfolioValue)
		metrics["total_value"] = append(metrics["total_value"], r.TotalValue)
	}

	summary := Summary{}
	for model, metrics := range byModel {
		summary[model] = map[string]Stats{}
		for metric, values := range metrics {
			summary[model][metric] = meanStd(values)
		}
	}
	return summary
}

func meanStd(values []float64) Stats {
	n := float64(len(values))
	if n == 0 {
		return Stats{}
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if n < 2 {
		return Stats{Mean: mean}
	}
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return Stats{Mean: mean, Std: math.Sqrt(ss / (n - 1))}
}
