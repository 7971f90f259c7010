package execution

import (
	"errors"
	"math/rand"
	"time"
)

// SimulatorConfig tunes the fill model.
type SimulatorConfig struct {
	SlippageBps            float64 // worst-case adverse move, scaled by a random draw
	FeeBps                 float64 // taker fee per fill
	MaxLatency             time.Duration
	PartialFillProbability float64
	MaxPartialFills        int
}

// Simulator converts orders into fills with adverse slippage, latency and
// occasional partial execution. All randomness comes from the injected
// source so a seeded run replays identically.
type Simulator struct {
	cfg SimulatorConfig
	rng *rand.Rand
}

// NewSimulator builds a simulator around a seeded source.
func NewSimulator(cfg SimulatorConfig, rng *rand.Rand) *Simulator {
	if cfg.MaxPartialFills <= 0 {
		cfg.MaxPartialFills = 3
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{cfg: cfg, rng: rng}
}

// Execute fills the order against the supplied mark price. The returned
// slice holds one fill, or several when the order is split.
func (s *Simulator) Execute(order Order, mark float64, now time.Time) ([]Fill, error) {
	if order.Qty <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	if mark <= 0 {
		return nil, errors.New("mark price must be positive")
	}

	parts := 1
	if s.cfg.MaxPartialFills > 1 && s.cfg.PartialFillProbability > 0 && s.rng.Float64() < s.cfg.PartialFillProbability {
		parts = 2 + s.rng.Intn(s.cfg.MaxPartialFills-1)
	}

	liquidity := "full"
	if parts > 1 {
		liquidity = "partial"
	}

	fills := make([]Fill, 0, parts)
	remaining := order.Qty
	ts := now
	for i := 0; i < parts; i++ {
		qty := remaining / float64(parts-i)
		if i == parts-1 {
			qty = remaining
		}
		remaining -= qty

		price := s.slip(order.Side, mark)
		ts = ts.Add(s.latency())
		fills = append(fills, Fill{
			Symbol:    order.Symbol,
			Side:      order.Side,
			Qty:       qty,
			Price:     price,
			Fee:       qty * price * s.cfg.FeeBps / 10_000,
			Ts:        ts,
			Liquidity: liquidity,
		})
	}
	return fills, nil
}

// slip moves the mark against the order by a random share of the budget.
func (s *Simulator) slip(side Side, mark float64) float64 {
	if s.cfg.SlippageBps <= 0 {
		return mark
	}
	frac := s.rng.Float64() * s.cfg.SlippageBps / 10_000
	if side == Buy {
		return mark * (1 + frac)
	}
	return mark * (1 - frac)
}

func (s *Simulator) latency() time.Duration {
	if s.cfg.MaxLatency <= 0 {
		return 0
	}
	return time.Duration(s.rng.Int63n(int64(s.cfg.MaxLatency)))
}
