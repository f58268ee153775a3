package main

import (
	"flag"
	"log"

	"github.com/wowecon/ah-simulator/internal/compare"
	"github.com/wowecon/ah-simulator/internal/config"
	"github.com/wowecon/ah-simulator/internal/engine"
	"github.com/wowecon/ah-simulator/internal/export"
	"github.com/wowecon/ah-simulator/internal/market"
	"github.com/wowecon/ah-simulator/internal/observ"
)

func main() {
	log.SetFlags(0)

	var (
		configPath  = flag.String("config", "", "yaml config path (optional, defaults apply)")
		obsPath     = flag.String("observations", "", "observation table CSV (required)")
		impactsPath = flag.String("impacts", "", "impact score CSV (required)")
		runs        = flag.Int("runs", 0, "override run count per model")
		seed        = flag.Int64("seed", 0, "override noise seed")
		outPath     = flag.String("out", "simulator_comparison_results.csv", "per-run results CSV output")
	)
	flag.Parse()

	if *obsPath == "" || *impactsPath == "" {
		log.Fatal("compare: -observations and -impacts are required")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("compare: %v", err)
		}
	}
	if *runs > 0 {
		cfg.Comparator.Runs = *runs
	}
	if *seed != 0 {
		cfg.Comparator.Seed = *seed
	}

	obs, err := market.LoadObservations(*obsPath)
	if err != nil {
		log.Fatalf("compare: %v", err)
	}
	impacts, err := market.LoadImpactScores(*impactsPath)
	if err != nil {
		log.Fatalf("compare: %v", err)
	}

	results, summary := compare.Run(compare.Config{
		Runs:         cfg.Comparator.Runs,
		Seed:         cfg.Comparator.Seed,
		NoiseLow:     cfg.Comparator.Noise.Low,
		NoiseHigh:    cfg.Comparator.Noise.High,
		StartingGold: cfg.StartingGold,
		Window:       cfg.MovingAverageWindow,
		Params: engine.Params{
			MaxSellFraction:   cfg.MaxSellFraction,
			BuyBudgetFraction: cfg.BuyBudgetFraction,
		},
	}, obs, impacts)

	if err := export.WriteRunResultsCSV(*outPath, results); err != nil {
		log.Fatalf("compare: %v", err)
	}

	for model, metrics := range summary {
		kv := map[string]any{"model": model, "runs": cfg.Comparator.Runs}
		for metric, stats := range metrics {
			kv[metric+"_mean"] = stats.Mean
			kv[metric+"_std"] = stats.Std
		}
		observ.Log("comparison_summary", kv)
	}
}
