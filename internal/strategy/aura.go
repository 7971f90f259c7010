package strategy

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/BSmick6/aurabot/internal/dataset"
	"github.com/BSmick6/aurabot/internal/model"
	"github.com/BSmick6/aurabot/internal/signal"
)

const auraSeriesCap = 12

// Aura scores ticks with the trained classifier, blended against the live aura
// reading so a cold model cannot fully mute the sentiment stream.
type Aura struct {
	model       *model.Logistic
	threshold   float64
	modelWeight float64
	window      time.Duration

	mu       sync.Mutex
	series   map[string][]dataset.Sample
	readings map[string]auraReading // upper-cased keyword -> latest
}

type auraReading struct {
	score    float64
	mentions int
	ts       time.Time
}

// NewAura builds the model-driven strategy.
func NewAura(m *model.Logistic, threshold, modelWeight float64, windowSecs int) *Aura {
	if threshold <= 0 {
		threshold = 0.2
	}
	if modelWeight <= 0 || modelWeight > 1 {
		modelWeight = 0.7
	}
	if windowSecs <= 0 {
		windowSecs = 120
	}
	return &Aura{
		model:       m,
		threshold:   threshold,
		modelWeight: modelWeight,
		window:      time.Duration(windowSecs) * time.Second,
		series:      make(map[string][]dataset.Sample),
		readings:    make(map[string]auraReading),
	}
}

// Name returns the identifier for logging.
func (a *Aura) Name() string { return "Aura" }

// OnAura records the latest reading for a keyword.
func (a *Aura) OnAura(keyword string, score float64, mentions int) {
	key := strings.ToUpper(strings.TrimSpace(keyword))
	if key == "" {
		return
	}
	a.mu.Lock()
	a.readings[key] = auraReading{score: score, mentions: mentions, ts: time.Now().UTC()}
	a.mu.Unlock()
}

// OnTick folds the tick into the per-symbol window and emits a blended signal
// when the combined score clears the threshold.
func (a *Aura) OnTick(t signal.Tick) *signal.Signal {
	if t.Symbol == "" || t.Price <= 0 {
		return nil
	}

	a.mu.Lock()
	reading, hasReading := a.matchReading(t.Symbol)
	sample := dataset.Sample{
		Symbol:               t.Symbol,
		Mint:                 t.Mint,
		Ts:                   t.Ts.UTC(),
		PriceSOL:             t.Price,
		Size:                 t.Size,
		Side:                 t.Side,
		VirtualTokenReserves: t.VirtualTokenReserves,
		VirtualSolReserves:   t.VirtualSolReserves,
		CurveComplete:        t.CurveComplete,
	}
	if hasReading {
		sample.AuraScore = reading.score
		sample.Mentions = reading.mentions
	}
	window := append(a.series[t.Symbol], sample)
	cutoff := sample.Ts.Add(-a.window)
	idx := 0
	for i, existing := range window {
		if existing.Ts.After(cutoff) {
			idx = i
			break
		}
		idx = i + 1
	}
	if idx > 0 && idx <= len(window) {
		window = window[idx:]
	}
	if len(window) > auraSeriesCap {
		window = window[len(window)-auraSeriesCap:]
	}
	a.series[t.Symbol] = window
	a.mu.Unlock()

	if t.CurveComplete {
		// Terminal curve snapshot; the token trades on a DEX pool now.
		return nil
	}

	modelScore := a.model.Score(model.Features(window))
	rawAura := sample.AuraScore
	score := a.modelWeight*modelScore + (1-a.modelWeight)*rawAura
	if math.Abs(score) < a.threshold {
		return nil
	}

	reason := fmt.Sprintf("model=%.2f aura=%.2f mentions=%d", modelScore, rawAura, sample.Mentions)
	return &signal.Signal{Symbol: t.Symbol, Score: score, Reason: reason, Ts: t.Ts}
}

// matchReading resolves the freshest keyword reading for a launch alias; caller holds the lock.
func (a *Aura) matchReading(symbol string) (auraReading, bool) {
	upper := strings.ToUpper(symbol)
	var best auraReading
	found := false
	for key, reading := range a.readings {
		if !strings.Contains(upper, key) {
			continue
		}
		if !found || reading.ts.After(best.ts) {
			best = reading
			found = true
		}
	}
	return best, found
}
