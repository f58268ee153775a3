package main

import (
	"flag"
	"log"

	"github.com/wowecon/ah-simulator/internal/config"
	"github.com/wowecon/ah-simulator/internal/engine"
	"github.com/wowecon/ah-simulator/internal/export"
	"github.com/wowecon/ah-simulator/internal/indicator"
	"github.com/wowecon/ah-simulator/internal/market"
	"github.com/wowecon/ah-simulator/internal/observ"
	"github.com/wowecon/ah-simulator/internal/portfolio"
)

func main() {
	log.SetFlags(0)

	var (
		configPath  = flag.String("config", "", "yaml config path (optional, defaults apply)")
		obsPath     = flag.String("observations", "", "observation table CSV (required)")
		impactsPath = flag.String("impacts", "", "impact score CSV (optional)")
		tradeCSV    = flag.String("trade-log", "trade_log.csv", "trade log CSV output")
		tradeJSONL  = flag.String("trade-jsonl", "", "trade log JSONL output (optional)")
		statePath   = flag.String("state", "", "final state JSON output (optional)")
	)
	flag.Parse()

	if *obsPath == "" {
		log.Fatal("simulate: -observations is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("simulate: %v", err)
		}
	}

	obs, err := market.LoadObservations(*obsPath)
	if err != nil {
		log.Fatalf("simulate: %v", err)
	}

	var impacts *market.ImpactTable
	if *impactsPath != "" {
		impacts, err = market.LoadImpactScores(*impactsPath)
		if err != nil {
			log.Fatalf("simulate: %v", err)
		}
	}

	derived := indicator.Preprocess(obs, impacts, cfg.MovingAverageWindow)
	ticks := indicator.GroupByTimestamp(derived)

	st := portfolio.New(cfg.StartingGold)
	engine.Run(ticks, st, engine.Params{
		MaxSellFraction:   cfg.MaxSellFraction,
		BuyBudgetFraction: cfg.BuyBudgetFraction,
	})

	if err := export.WriteTradeLogCSV(*tradeCSV, st.TradeLog); err != nil {
		log.Fatalf("simulate: %v", err)
	}
	if *tradeJSONL != "" {
		if err := export.WriteTradeLogJSONL(*tradeJSONL, st.TradeLog); err != nil {
			log.Fatalf("simulate: %v", err)
		}
	}
	if *statePath != "" {
		if err := st.Save(*statePath); err != nil {
			log.Fatalf("simulate: %v", err)
		}
	}

	prices := market.LastPrices(obs)
	holdings := st.HoldingsValue(prices)
	observ.Log("simulation_complete", map[string]any{
		"final_gold":      st.Gold,
		"portfolio_value": holdings,
		"total_value":     st.Gold + holdings,
		"trades":          len(st.TradeLog),
		"with_insights":   impacts.Len() > 0,
	})
	observ.Log("metrics", map[string]any{"snapshot": observ.Snapshot()})
}
