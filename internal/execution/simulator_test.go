package execution

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestExecuteSlipsAgainstSide(t *testing.T) {
	cfg := SimulatorConfig{SlippageBps: 50}
	now := time.Now()

	sim := NewSimulator(cfg, rand.New(rand.NewSource(1)))
	fills, err := sim.Execute(Order{Symbol: "WIFSOL", Side: Buy, Qty: 10}, 100, now)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	for _, fill := range fills {
		if fill.Price < 100 {
			t.Fatalf("buy filled below mark: %.4f", fill.Price)
		}
		if fill.Price > 100*1.005 {
			t.Fatalf("buy slipped past the budget: %.4f", fill.Price)
		}
	}

	sim = NewSimulator(cfg, rand.New(rand.NewSource(1)))
	fills, err = sim.Execute(Order{Symbol: "WIFSOL", Side: Sell, Qty: 10}, 100, now)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	for _, fill := range fills {
		if fill.Price > 100 {
			t.Fatalf("sell filled above mark: %.4f", fill.Price)
		}
	}
}

func TestExecutePartialFillsSumToOrder(t *testing.T) {
	cfg := SimulatorConfig{
		PartialFillProbability: 1,
		MaxPartialFills:        4,
	}
	sim := NewSimulator(cfg, rand.New(rand.NewSource(7)))

	fills, err := sim.Execute(Order{Symbol: "BONKSOL", Side: Buy, Qty: 9}, 2, time.Now())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(fills) < 2 {
		t.Fatalf("expected a split order, got %d fill(s)", len(fills))
	}
	var total float64
	for _, fill := range fills {
		if fill.Liquidity != "partial" {
			t.Fatalf("expected partial liquidity flag, got %q", fill.Liquidity)
		}
		total += fill.Qty
	}
	if math.Abs(total-9) > 1e-9 {
		t.Fatalf("partial fills sum to %.9f, want 9", total)
	}
}

func TestExecuteDeterministicWithSeed(t *testing.T) {
	cfg := SimulatorConfig{
		SlippageBps:            80,
		FeeBps:                 100,
		MaxLatency:             200 * time.Millisecond,
		PartialFillProbability: 0.5,
		MaxPartialFills:        3,
	}
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	order := Order{Symbol: "WIFSOL", Side: Buy, Qty: 5}

	first, err := NewSimulator(cfg, rand.New(rand.NewSource(42))).Execute(order, 10, now)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	second, err := NewSimulator(cfg, rand.New(rand.NewSource(42))).Execute(order, 10, now)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("fill counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("fill %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestExecuteChargesFee(t *testing.T) {
	cfg := SimulatorConfig{FeeBps: 100}
	sim := NewSimulator(cfg, rand.New(rand.NewSource(3)))

	fills, err := sim.Execute(Order{Symbol: "WIFSOL", Side: Buy, Qty: 10}, 5, time.Now())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("expected one fill, got %d", len(fills))
	}
	want := fills[0].Notional() * 0.01
	if math.Abs(fills[0].Fee-want) > 1e-12 {
		t.Fatalf("fee %.12f, want %.12f", fills[0].Fee, want)
	}
}

func TestExecuteRejectsBadInput(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{}, rand.New(rand.NewSource(1)))
	if _, err := sim.Execute(Order{Symbol: "X", Side: Buy, Qty: 0}, 1, time.Now()); err == nil {
		t.Fatalf("expected error for zero quantity")
	}
	if _, err := sim.Execute(Order{Symbol: "X", Side: Buy, Qty: 1}, 0, time.Now()); err == nil {
		t.Fatalf("expected error for zero mark price")
	}
}
