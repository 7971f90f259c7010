package risk

import (
	"testing"
	"time"
)

func TestAllowTradeNotional(t *testing.T) {
	m := NewManager(Limits{MaxNotionalPerTrade: 50})
	if ok, _ := m.Allow(49.9, 0); !ok {
		t.Fatalf("expected notional under limit to pass")
	}
	ok, reason := m.Allow(50.1, 0)
	if ok {
		t.Fatalf("expected notional above limit to fail")
	}
	if reason != ReasonTradeNotional {
		t.Fatalf("expected reason %q, got %q", ReasonTradeNotional, reason)
	}
}

func TestAllowPortfolioNotional(t *testing.T) {
	m := NewManager(Limits{MaxNotionalPerTrade: 50, MaxPortfolioNotional: 100})
	if ok, _ := m.Allow(40, 50); !ok {
		t.Fatalf("expected order inside portfolio limit to pass")
	}
	ok, reason := m.Allow(40, 70)
	if ok {
		t.Fatalf("expected order past portfolio limit to fail")
	}
	if reason != ReasonPortfolioNotional {
		t.Fatalf("expected reason %q, got %q", ReasonPortfolioNotional, reason)
	}
}

func TestDailyLossBlocksAndRollsOver(t *testing.T) {
	m := NewManager(Limits{MaxDailyLoss: 10})
	day := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return day }

	m.RecordPnL(-6)
	m.RecordPnL(3) // gains do not offset the loss counter
	m.RecordPnL(-5)
	ok, reason := m.Allow(1, 0)
	if ok {
		t.Fatalf("expected daily loss limit to block")
	}
	if reason != ReasonDailyLoss {
		t.Fatalf("expected reason %q, got %q", ReasonDailyLoss, reason)
	}

	day = day.Add(24 * time.Hour)
	if ok, _ := m.Allow(1, 0); !ok {
		t.Fatalf("expected loss counter to reset on the next UTC day")
	}
}

func TestKillSwitchLatches(t *testing.T) {
	m := NewManager(Limits{KillSwitchDrawdown: 0.2})
	m.MarkEquity(1000)
	m.MarkEquity(900)
	if m.Tripped() {
		t.Fatalf("10%% drawdown should not trip a 20%% switch")
	}
	m.MarkEquity(750)
	if !m.Tripped() {
		t.Fatalf("expected kill switch to trip at 25%% drawdown")
	}

	// Recovery does not unlatch.
	m.MarkEquity(1100)
	if !m.Tripped() {
		t.Fatalf("expected kill switch to stay latched")
	}
	ok, reason := m.Allow(1, 0)
	if ok || reason != ReasonKillSwitch {
		t.Fatalf("expected kill switch rejection, got ok=%v reason=%q", ok, reason)
	}
}
