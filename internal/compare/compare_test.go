package compare

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wowecon/ah-simulator/internal/engine"
	"github.com/wowecon/ah-simulator/internal/market"
)

func baseTable() []market.Observation {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := []float64{100, 100, 100, 100, 80, 100, 100, 100, 100, 100, 130, 100, 100, 100, 100, 100, 100, 100, 100, 100}
	var obs []market.Observation
	for i, price := range prices {
		ts := start.Add(time.Duration(i) * time.Hour)
		obs = append(obs,
			market.Observation{Timestamp: ts, Item: "copper", MarketValue: price, MinBuyout: price, Quantity: 1000},
			market.Observation{Timestamp: ts, Item: "silver", MarketValue: 50, MinBuyout: 50, Quantity: 500},
		)
	}
	return obs
}

func testConfig() Config {
	return Config{
		Runs:         4,
		Seed:         99,
		NoiseLow:     0.8,
		NoiseHigh:    1.2,
		StartingGold: 100000,
		Window:       7,
		Params:       engine.Params{MaxSellFraction: 0.01, BuyBudgetFraction: 0.10},
	}
}

func TestNoiseStaysInBandAndPreservesBase(t *testing.T) {
	base := baseTable()
	original := make([]market.Observation, len(base))
	copy(original, base)

	rng := rand.New(rand.NewSource(1))
	noised := NoiseObservations(base, rng, 0.8, 1.2)

	require.Len(t, noised, len(base))
	for i, n := range noised {
		lo := int64(0.8 * float64(base[i].Quantity))
		hi := int64(1.2 * float64(base[i].Quantity))
		assert.GreaterOrEqual(t, n.Quantity, lo)
		assert.LessOrEqual(t, n.Quantity, hi)
		// only quantity is perturbed
		assert.Equal(t, base[i].MarketValue, n.MarketValue)
		assert.Equal(t, base[i].Timestamp, n.Timestamp)
	}
	assert.Equal(t, original, base, "noising must never mutate the base table")
}

func TestRunIsReproducibleAcrossInvocations(t *testing.T) {
	base := baseTable()
	impacts := market.NewImpactTable(map[string]float64{"copper": 3})

	results1, summary1 := Run(testConfig(), base, impacts)
	results2, summary2 := Run(testConfig(), base, impacts)

	require.Equal(t, results1, results2, "same seed must reproduce results despite concurrent runs")
	require.Equal(t, summary1, summary2)
}

func TestRunProducesBothModels(t *testing.T) {
	base := baseTable()
	impacts := market.NewImpactTable(map[string]float64{"copper": 3})
	cfg := testConfig()

	results, summary := Run(cfg, base, impacts)

	require.Len(t, results, 2*cfg.Runs)
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Model]++
		assert.Equal(t, r.FinalGold+r.PortfolioValue, r.TotalValue)
		assert.GreaterOrEqual(t, r.FinalGold, 0.0)
	}
	assert.Equal(t, cfg.Runs, counts[ModelNoInsights])
	assert.Equal(t, cfg.Runs, counts[ModelWithInsights])

	require.Contains(t, summary, ModelNoInsights)
	require.Contains(t, summary, ModelWithInsights)
	for _, metrics := range summary {
		for _, metric := range []string{"final_gold", "portfolio_value", "total_value"} {
			require.Contains(t, metrics, metric)
		}
	}
}

func TestRunLeavesBaseUntouched(t *testing.T) {
	base := baseTable()
	original := make([]market.Observation, len(base))
	copy(original, base)

	Run(testConfig(), base, nil)

	assert.Equal(t, original, base)
}

func TestSummarizeMeanAndSampleStd(t *testing.T) {
	results := []RunResult{
		{Model: "m", FinalGold: 10, PortfolioValue: 1, TotalValue: 11},
		{Model: "m", FinalGold: 20, PortfolioValue: 3, TotalValue: 23},
	}

	summary := Summarize(results)

	gold := summary["m"]["final_gold"]
	assert.InDelta(t, 15.0, gold.Mean, 1e-9)
	assert.InDelta(t, 7.0710678, gold.Std, 1e-6)

	single := Summarize(results[:1])
	assert.Equal(t, 0.0, single["m"]["final_gold"].Std, "single run has no sample std")
}
