// Package indicator derives causal per-item features from an observation
// table: trailing moving average, relative deviation and calendar flags. The
// moving average at a row only ever sees rows strictly before it; the current
// price never leaks into its own average.
package indicator

import (
	"sort"
	"time"

	"github.com/wowecon/ah-simulator/internal/market"
)

// Deviation is the relative distance of the current price from its trailing
// moving average. The zero value is undefined (no prior history, or a zero
// average); undefined deviations never trigger trades.
type Deviation struct {
	defined bool
	value   float64
}

func DefinedDeviation(v float64) Deviation { return Deviation{defined: true, value: v} }

func (d Deviation) Defined() bool { return d.defined }

// Value returns the deviation; only meaningful when Defined.
func (d Deviation) Value() float64 { return d.value }

// Above reports whether the deviation is defined and greater than threshold.
func (d Deviation) Above(threshold float64) bool { return d.defined && d.value > threshold }

// Below reports whether the deviation is defined and less than threshold.
func (d Deviation) Below(threshold float64) bool { return d.defined && d.value < threshold }

// Derived is an observation plus the features the policy rules consume.
type Derived struct {
	market.Observation
	Hour        int     // 0-23
	DayOfWeek   int     // 0-6, Monday=0
	WeeklyReset bool    // Wednesday 08:00-12:59
	MA          float64 // trailing mean, valid only when MAOK
	MAOK        bool
	Dev         Deviation
	Impact      float64 // news impact score, 0 without a provider
}

// Tick is one timestamp group, processed atomically by the policy engine.
type Tick struct {
	Timestamp time.Time
	Rows      []Derived
}

// dayOfWeek converts Go's Sunday=0 convention to Monday=0.
func dayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Preprocess stable-sorts observations by (timestamp, item) and derives
// features row by row. The trailing average at row k is the mean of up to
// window prior observations of the same item; with no prior history the
// average and deviation are undefined.
func Preprocess(obs []market.Observation, impacts *market.ImpactTable, window int) []Derived {
	sorted := make([]market.Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].Item < sorted[j].Item
	})

	history := map[string][]float64{} // trailing prices per item, newest last
	derived := make([]Derived, 0, len(sorted))
	for _, o := range sorted {
		d := Derived{
			Observation: o,
			Hour:        o.Timestamp.Hour(),
			DayOfWeek:   dayOfWeek(o.Timestamp),
			Impact:      impacts.Score(o.Item),
		}
		d.WeeklyReset = d.DayOfWeek == 2 && d.Hour >= 8 && d.Hour <= 12

		if prior := history[o.Item]; len(prior) > 0 {
			sum := 0.0
			for _, p := range prior {
				sum += p
			}
			d.MA = sum / float64(len(prior))
			d.MAOK = true
			if d.MA != 0 {
				d.Dev = DefinedDeviation((o.MarketValue - d.MA) / d.MA)
			}
		}

		prior := append(history[o.Item], o.MarketValue)
		if len(prior) > window {
			prior = prior[len(prior)-window:]
		}
		history[o.Item] = prior

		derived = append(derived, d)
	}
	return derived
}

// GroupByTimestamp splits a derived sequence into ticks, preserving row order
// within each tick. Input must already be timestamp-sorted (Preprocess output).
func GroupByTimestamp(derived []Derived) []Tick {
	var ticks []Tick
	for _, d := range derived {
		n := len(ticks)
		if n == 0 || !ticks[n-1].Timestamp.Equal(d.Timestamp) {
			ticks = append(ticks, Tick{Timestamp: d.Timestamp})
			n++
		}
		ticks[n-1].Rows = append(ticks[n-1].Rows, d)
	}
	return ticks
}
