package dataset

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "aura.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreAppendAndRange(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	samples := []Sample{
		{Symbol: "WIF_AAA", Ts: base, PriceSOL: 1e-6, Size: 10, Side: 1, AuraScore: 0.4, Mentions: 3, Source: "joined"},
		{Symbol: "WIF_AAA", Ts: base.Add(time.Second), PriceSOL: 1.1e-6, Size: 5, Side: 1, Source: "tick"},
		{Symbol: "PEPE_BBB", Ts: base.Add(2 * time.Second), PriceSOL: 2e-7, Size: 7, Side: -1, Source: "tick"},
	}
	for _, sample := range samples {
		if err := store.Append(sample); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	got, err := store.Range(context.Background(), time.Time{}, time.Time{}, nil)
	if err != nil {
		t.Fatalf("Range returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}
	if !got[0].Ts.Equal(base) {
		t.Fatalf("expected time order, first ts %s", got[0].Ts)
	}
	if got[0].AuraScore != 0.4 || got[0].Mentions != 3 {
		t.Fatalf("aura fields not round-tripped: %+v", got[0])
	}

	filtered, err := store.Range(context.Background(), base.Add(time.Second), time.Time{}, []string{"WIF_AAA"})
	if err != nil {
		t.Fatalf("filtered Range returned error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Symbol != "WIF_AAA" {
		t.Fatalf("unexpected filtered result: %+v", filtered)
	}
}

func TestStoreAppendIdempotent(t *testing.T) {
	store := openTestStore(t)
	sample := Sample{Symbol: "WIF_AAA", Ts: time.Now().UTC(), PriceSOL: 1, Source: "tick"}

	if err := store.Append(sample); err != nil {
		t.Fatalf("first Append returned error: %v", err)
	}
	if err := store.Append(sample); err != nil {
		t.Fatalf("duplicate Append returned error: %v", err)
	}
	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row after duplicate insert, got %d", n)
	}
}

func TestStoreRejectsIncompleteSamples(t *testing.T) {
	store := openTestStore(t)
	if err := store.Append(Sample{Ts: time.Now(), Source: "tick"}); err == nil {
		t.Fatalf("expected error for missing symbol")
	}
	if err := store.Append(Sample{Symbol: "X", Ts: time.Now()}); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestStoreSymbols(t *testing.T) {
	store := openTestStore(t)
	now := time.Now().UTC()
	_ = store.Append(Sample{Symbol: "B", Ts: now, Source: "tick"})
	_ = store.Append(Sample{Symbol: "A", Ts: now, Source: "tick"})

	symbols, err := store.Symbols(context.Background())
	if err != nil {
		t.Fatalf("Symbols returned error: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "A" || symbols[1] != "B" {
		t.Fatalf("unexpected symbols: %+v", symbols)
	}
}
