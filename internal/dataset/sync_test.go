package dataset

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/BSmick6/aurabot/internal/signal"
	"github.com/BSmick6/aurabot/internal/social"
)

type memWriter struct {
	mu      sync.Mutex
	samples []Sample
}

func (w *memWriter) Append(sample Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = append(w.samples, sample)
	return nil
}

func (w *memWriter) snapshot() []Sample {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Sample, len(w.samples))
	copy(out, w.samples)
	return out
}

type failWriter struct {
	mu    sync.Mutex
	calls int
}

func (w *failWriter) Append(sample Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	return errors.New("disk full")
}

func TestSynchronizerJoinsReadingWithinTolerance(t *testing.T) {
	sink := &memWriter{}
	syncer := NewSynchronizer(zerolog.Nop(), []Writer{sink}, WithTolerance(2*time.Second))

	now := time.Now().UTC()
	syncer.onReading(social.Reading{Keyword: "wif", Score: 0.6, Mentions: 5, Ts: now})
	syncer.onTick(signal.Tick{Symbol: "WIF_ABC123", Price: 1e-6, Size: 10, Side: 1, Ts: now.Add(500 * time.Millisecond)})
	syncer.flush(time.Time{})

	samples := sink.snapshot()
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0].Source != "joined" {
		t.Fatalf("expected joined sample, got %s", samples[0].Source)
	}
	if samples[0].AuraScore != 0.6 || samples[0].Mentions != 5 {
		t.Fatalf("aura not joined: %+v", samples[0])
	}
}

func TestSynchronizerLateReadingUpgradesHeldTick(t *testing.T) {
	sink := &memWriter{}
	syncer := NewSynchronizer(zerolog.Nop(), []Writer{sink}, WithTolerance(2*time.Second))

	now := time.Now().UTC()
	syncer.onTick(signal.Tick{Symbol: "PEPE_XYZ", Price: 2e-7, Size: 3, Side: 1, Ts: now})
	syncer.onReading(social.Reading{Keyword: "pepe", Score: -0.3, Mentions: 2, Ts: now.Add(time.Second)})
	syncer.flush(time.Time{})

	samples := sink.snapshot()
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0].Source != "joined" || samples[0].AuraScore != -0.3 {
		t.Fatalf("late reading did not join: %+v", samples[0])
	}
}

func TestSynchronizerFlushesUnjoinedTicks(t *testing.T) {
	sink := &memWriter{}
	syncer := NewSynchronizer(zerolog.Nop(), []Writer{sink}, WithTolerance(time.Second))

	old := time.Now().UTC().Add(-5 * time.Second)
	syncer.onTick(signal.Tick{Symbol: "DOGE_Q", Price: 1, Size: 1, Side: 1, Ts: old})
	syncer.flush(time.Now().UTC().Add(-time.Second))

	samples := sink.snapshot()
	if len(samples) != 1 {
		t.Fatalf("expected unjoined tick flushed, got %d samples", len(samples))
	}
	if samples[0].Source != "tick" || samples[0].AuraScore != 0 {
		t.Fatalf("expected bare tick sample: %+v", samples[0])
	}
	if syncer.Emitted() != 1 {
		t.Fatalf("expected Emitted()==1, got %d", syncer.Emitted())
	}
}

func TestSynchronizerCarriesCurveState(t *testing.T) {
	sink := &memWriter{}
	syncer := NewSynchronizer(zerolog.Nop(), []Writer{sink})

	syncer.onTick(signal.Tick{
		Symbol:               "TEST_9ZZZ",
		Price:                2.79e-8,
		Size:                 80,
		Side:                 1,
		VirtualTokenReserves: 1_073_000_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		Ts:                   time.Now().UTC(),
	})
	syncer.flush(time.Time{})

	samples := sink.snapshot()
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	got := samples[0]
	if got.VirtualTokenReserves != 1_073_000_000_000_000 || got.VirtualSolReserves != 30_000_000_000 {
		t.Fatalf("curve reserves not carried: vtok=%d vsol=%d", got.VirtualTokenReserves, got.VirtualSolReserves)
	}
	if got.CurveComplete {
		t.Fatalf("fresh curve marked complete: %+v", got)
	}
}

func TestSynchronizerWriteSurvivesFailingSink(t *testing.T) {
	bad := &failWriter{}
	good := &memWriter{}
	syncer := NewSynchronizer(zerolog.Nop(), []Writer{bad, good})

	syncer.onTick(signal.Tick{Symbol: "WIF_ABC", Price: 1e-6, Size: 1, Side: 1, Ts: time.Now().UTC()})
	syncer.flush(time.Time{})

	if got := len(good.snapshot()); got != 1 {
		t.Fatalf("healthy sink starved by failing sink: %d samples", got)
	}
	if bad.calls != 1 {
		t.Fatalf("failing sink not attempted: %d calls", bad.calls)
	}
	if syncer.Emitted() != 1 {
		t.Fatalf("sample accepted by a sink should count as emitted, got %d", syncer.Emitted())
	}
}

func TestSynchronizerStaleReadingDoesNotJoin(t *testing.T) {
	sink := &memWriter{}
	syncer := NewSynchronizer(zerolog.Nop(), []Writer{sink}, WithTolerance(time.Second))

	now := time.Now().UTC()
	syncer.onReading(social.Reading{Keyword: "wif", Score: 0.9, Mentions: 9, Ts: now.Add(-time.Minute)})
	syncer.onTick(signal.Tick{Symbol: "WIF_ABC", Price: 1, Size: 1, Side: 1, Ts: now})
	syncer.flush(time.Time{})

	samples := sink.snapshot()
	if len(samples) != 1 || samples[0].Source != "tick" {
		t.Fatalf("stale reading should not join: %+v", samples)
	}
}
