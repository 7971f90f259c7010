package dataset

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BSmick6/aurabot/internal/metrics"
	"github.com/BSmick6/aurabot/internal/signal"
	"github.com/BSmick6/aurabot/internal/social"
)

const (
	defaultTolerance  = 2 * time.Second
	defaultFlushEvery = 500 * time.Millisecond
)

// Synchronizer aligns the tick stream with aura readings by timestamp and writes
// the joined samples out. A tick is held for the tolerance window so a slightly
// late reading can still join it; after that it flushes with whatever aura it has.
type Synchronizer struct {
	tolerance  time.Duration
	flushEvery time.Duration
	writers    []Writer
	log        zerolog.Logger

	mu       sync.Mutex
	pending  map[string]*Sample        // symbol -> held sample
	readings map[string]social.Reading // keyword -> latest reading
	emitted  int
}

// SyncOption tunes Synchronizer construction.
type SyncOption func(*Synchronizer)

// WithTolerance sets the maximum timestamp distance for a join.
func WithTolerance(d time.Duration) SyncOption {
	return func(s *Synchronizer) {
		if d > 0 {
			s.tolerance = d
		}
	}
}

// WithFlushInterval sets how often held samples are re-examined.
func WithFlushInterval(d time.Duration) SyncOption {
	return func(s *Synchronizer) {
		if d > 0 {
			s.flushEvery = d
		}
	}
}

// NewSynchronizer builds a synchronizer writing joined samples to the given writers.
func NewSynchronizer(log zerolog.Logger, writers []Writer, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		tolerance:  defaultTolerance,
		flushEvery: defaultFlushEvery,
		writers:    writers,
		log:        log,
		pending:    make(map[string]*Sample),
		readings:   make(map[string]social.Reading),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes both streams until the context is canceled, flushing held samples on exit.
func (s *Synchronizer) Run(ctx context.Context, ticks <-chan signal.Tick, readings <-chan social.Reading) error {
	ticker := time.NewTicker(s.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flush(time.Time{}) // drain everything on shutdown
			return ctx.Err()
		case tick := <-ticks:
			s.onTick(tick)
		case reading := <-readings:
			s.onReading(reading)
		case now := <-ticker.C:
			s.flush(now.UTC().Add(-s.tolerance))
		}
	}
}

// onTick stages a sample, flushing any previous sample held for the same symbol.
func (s *Synchronizer) onTick(tick signal.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.pending[tick.Symbol]; ok {
		s.write(prev)
	}
	sample := &Sample{
		Symbol:               tick.Symbol,
		Mint:                 tick.Mint,
		Ts:                   tick.Ts.UTC(),
		PriceSOL:             tick.Price,
		Size:                 tick.Size,
		Side:                 tick.Side,
		VirtualTokenReserves: tick.VirtualTokenReserves,
		VirtualSolReserves:   tick.VirtualSolReserves,
		CurveComplete:        tick.CurveComplete,
		Source:               "tick",
	}
	if reading, ok := s.matchReading(tick.Symbol, sample.Ts); ok {
		sample.AuraScore = reading.Score
		sample.Mentions = reading.Mentions
		sample.Source = "joined"
	}
	s.pending[tick.Symbol] = sample
}

// onReading records the reading and upgrades any held samples it can join.
func (s *Synchronizer) onReading(reading social.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToUpper(strings.TrimSpace(reading.Keyword))
	if key == "" {
		return
	}
	s.readings[key] = reading

	for _, sample := range s.pending {
		if !symbolMatchesKeyword(sample.Symbol, key) {
			continue
		}
		if absDuration(sample.Ts.Sub(reading.Ts)) > s.tolerance {
			continue
		}
		sample.AuraScore = reading.Score
		sample.Mentions = reading.Mentions
		sample.Source = "joined"
	}
}

// matchReading finds the freshest reading whose keyword matches the symbol within tolerance.
func (s *Synchronizer) matchReading(symbol string, ts time.Time) (social.Reading, bool) {
	var best social.Reading
	found := false
	for key, reading := range s.readings {
		if !symbolMatchesKeyword(symbol, key) {
			continue
		}
		if absDuration(ts.Sub(reading.Ts)) > s.tolerance {
			continue
		}
		if !found || reading.Ts.After(best.Ts) {
			best = reading
			found = true
		}
	}
	return best, found
}

// flush writes held samples older than the cutoff; zero cutoff drains everything.
func (s *Synchronizer) flush(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for symbol, sample := range s.pending {
		if !cutoff.IsZero() && sample.Ts.After(cutoff) {
			continue
		}
		s.write(sample)
		delete(s.pending, symbol)
	}
}

// write fans a sample out to every writer; caller holds the lock. A failing
// sink is logged and skipped so the others still receive the sample.
func (s *Synchronizer) write(sample *Sample) {
	wrote := len(s.writers) == 0
	for _, w := range s.writers {
		if err := w.Append(*sample); err != nil {
			s.log.Warn().Err(err).Str("symbol", sample.Symbol).Msg("sample write failed")
			continue
		}
		wrote = true
	}
	if !wrote {
		return
	}
	s.emitted++
	metrics.SamplesTotal.WithLabelValues(sample.Source).Inc()
}

// Emitted reports how many samples have been persisted.
func (s *Synchronizer) Emitted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emitted
}

// symbolMatchesKeyword ties a keyword reading to launch aliases like WIF_ABC123.
func symbolMatchesKeyword(symbol, upperKeyword string) bool {
	return strings.Contains(strings.ToUpper(symbol), upperKeyword)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
