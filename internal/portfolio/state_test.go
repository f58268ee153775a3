package portfolio

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

var ts = time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)

func TestApplyBuyWeightedAverageCost(t *testing.T) {
	st := New(1000)
	if err := st.ApplyBuy(ts, "ore", 5, 10, "test"); err != nil {
		t.Fatal(err)
	}
	if err := st.ApplyBuy(ts, "ore", 7, 10, "test"); err != nil {
		t.Fatal(err)
	}

	pos := st.Position("ore")
	if pos.Quantity != 20 || pos.AvgCost != 6.0 {
		t.Fatalf("position after two buys: got %+v, want qty=20 avg_cost=6", pos)
	}
	if st.Gold != 1000-50-70 {
		t.Fatalf("gold: got %v, want 880", st.Gold)
	}
}

func TestApplyBuyRejectsOverspend(t *testing.T) {
	st := New(100)
	if err := st.ApplyBuy(ts, "ore", 30, 5, "test"); err == nil {
		t.Fatal("buy costing 150 against 100 gold must fail")
	}
	if st.Gold != 100 || len(st.TradeLog) != 0 {
		t.Fatalf("rejected buy must not mutate state: gold=%v trades=%d", st.Gold, len(st.TradeLog))
	}
}

func TestApplySellResetsAvgCostAtZero(t *testing.T) {
	st := New(1000)
	if err := st.ApplyBuy(ts, "ore", 4, 25, "test"); err != nil {
		t.Fatal(err)
	}
	if err := st.ApplySell(ts, "ore", 6, 25, "test"); err != nil {
		t.Fatal(err)
	}

	pos := st.Position("ore")
	if pos.Quantity != 0 || pos.AvgCost != 0 {
		t.Fatalf("emptied position must be fully zeroed, got %+v", pos)
	}
	if st.Gold != 1000-100+150 {
		t.Fatalf("gold: got %v, want 1050", st.Gold)
	}
}

func TestApplySellRejectsOverdraw(t *testing.T) {
	st := New(1000)
	if err := st.ApplySell(ts, "ore", 5, 1, "test"); err == nil {
		t.Fatal("selling from an empty position must fail")
	}
	st.ApplyBuy(ts, "ore", 5, 10, "test")
	if err := st.ApplySell(ts, "ore", 5, 11, "test"); err == nil {
		t.Fatal("selling more than held must fail")
	}
	if st.Position("ore").Quantity != 10 {
		t.Fatal("rejected sell must not shrink the position")
	}
}

func TestHoldingsValueFallsBackToAvgCost(t *testing.T) {
	st := New(10000)
	st.ApplyBuy(ts, "ore", 10, 5, "test")
	st.ApplyBuy(ts, "dust", 20, 3, "test")

	prices := map[string]float64{"ore": 12}
	// ore marked to 12, dust has no price and falls back to its avg cost 20.
	want := 5*12.0 + 3*20.0
	if got := st.HoldingsValue(prices); got != want {
		t.Fatalf("holdings value: got %v, want %v", got, want)
	}
	if got := st.TotalValue(prices); got != st.Gold+want {
		t.Fatalf("total value: got %v, want %v", got, st.Gold+want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := New(50000)
	st.ApplyBuy(ts, "ore", 10, 100, "dip")
	st.ApplySell(ts.Add(time.Hour), "ore", 15, 40, "spike")

	path := filepath.Join(t.TempDir(), "state.json")
	if err := st.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadState(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Gold != st.Gold {
		t.Fatalf("gold: got %v, want %v", loaded.Gold, st.Gold)
	}
	if !reflect.DeepEqual(loaded.Positions(), st.Positions()) {
		t.Fatalf("positions: got %+v, want %+v", loaded.Positions(), st.Positions())
	}
	if !reflect.DeepEqual(loaded.TradeLog, st.TradeLog) {
		t.Fatalf("trade log: got %+v, want %+v", loaded.TradeLog, st.TradeLog)
	}
}
