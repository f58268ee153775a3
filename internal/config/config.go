package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Noise struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

type Comparator struct {
	Runs  int   `yaml:"runs"`
	Seed  int64 `yaml:"seed"`
	Noise Noise `yaml:"noise"`
}

type Root struct {
	StartingGold        float64    `yaml:"starting_gold"`
	MaxSellFraction     float64    `yaml:"max_sell_fraction"`
	BuyBudgetFraction   float64    `yaml:"buy_budget_fraction"`
	MovingAverageWindow int        `yaml:"moving_average_window"`
	Comparator          Comparator `yaml:"comparator"`
}

// Default returns the configuration used when no file is supplied.
func Default() Root {
	var c Root
	c.applyDefaults()
	return c
}

func Load(path string) (Root, error) {
	var c Root
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func (c *Root) applyDefaults() {
	if c.StartingGold == 0 {
		c.StartingGold = 100000
	}
	if c.MaxSellFraction == 0 {
		c.MaxSellFraction = 0.01
	}
	if c.BuyBudgetFraction == 0 {
		c.BuyBudgetFraction = 0.10
	}
	if c.MovingAverageWindow == 0 {
		c.MovingAverageWindow = 7
	}
	if c.Comparator.Runs == 0 {
		c.Comparator.Runs = 30
	}
	if c.Comparator.Noise.Low == 0 {
		c.Comparator.Noise.Low = 0.8
	}
	if c.Comparator.Noise.High == 0 {
		c.Comparator.Noise.High = 1.2
	}
}

// Validate rejects configurations that must not reach the replay loop.
func (c Root) Validate() error {
	if c.StartingGold <= 0 {
		return fmt.Errorf("starting_gold must be positive, got %g", c.StartingGold)
	}
	if c.MaxSellFraction <= 0 || c.MaxSellFraction > 1 {
		return fmt.Errorf("max_sell_fraction must be in (0,1], got %g", c.MaxSellFraction)
	}
	if c.BuyBudgetFraction <= 0 || c.BuyBudgetFraction > 1 {
		return fmt.Errorf("buy_budget_fraction must be in (0,1], got %g", c.BuyBudgetFraction)
	}
	if c.MovingAverageWindow <= 0 {
		return fmt.Errorf("moving_average_window must be positive, got %d", c.MovingAverageWindow)
	}
	if c.Comparator.Runs <= 0 {
		return fmt.Errorf("comparator.runs must be positive, got %d", c.Comparator.Runs)
	}
	if c.Comparator.Noise.Low <= 0 || c.Comparator.Noise.High < c.Comparator.Noise.Low {
		return fmt.Errorf("comparator.noise band [%g,%g] is invalid",
			c.Comparator.Noise.Low, c.Comparator.Noise.High)
	}
	return nil
}
