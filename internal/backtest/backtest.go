// Package backtest replays stored samples through the trading pipeline.
package backtest

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/BSmick6/aurabot/internal/dataset"
	"github.com/BSmick6/aurabot/internal/execution"
	"github.com/BSmick6/aurabot/internal/paper"
	"github.com/BSmick6/aurabot/internal/risk"
	"github.com/BSmick6/aurabot/internal/signal"
	"github.com/BSmick6/aurabot/internal/strategy"
)

// Config narrows the replay window and fixes the randomness.
type Config struct {
	From          time.Time
	To            time.Time
	Symbols       []string
	Seed          int64
	OrderNotional float64 // cash deployed per entry
}

// Report summarizes one backtest run.
type Report struct {
	Samples      int
	Signals      int
	Orders       int
	Fills        int
	Wins         int
	Losses       int
	WinRate      float64
	RealizedPnL  float64
	FeesPaid     float64
	EndingEquity float64
	MaxDrawdown  float64
}

// String renders the report for terminal output.
func (r Report) String() string {
	return fmt.Sprintf(
		"samples=%d signals=%d orders=%d fills=%d win_rate=%.1f%% realized=%.4f fees=%.4f equity=%.4f max_dd=%.1f%%",
		r.Samples, r.Signals, r.Orders, r.Fills, r.WinRate*100, r.RealizedPnL, r.FeesPaid, r.EndingEquity, r.MaxDrawdown*100,
	)
}

// Engine wires the stored dataset into strategy, risk, simulator and account.
// The account is long-only, matching how bonding curve tokens actually trade:
// a bearish signal closes the position instead of opening a short.
type Engine struct {
	log       zerolog.Logger
	store     *dataset.Store
	strat     strategy.Strategy
	risk      *risk.Manager
	sim       *execution.Simulator
	account   *paper.Account
	recorders []paper.FillRecorder
	cfg       Config
}

// NewEngine assembles a replay engine. A nil simulator gets a default one
// seeded from the config so runs stay reproducible.
func NewEngine(log zerolog.Logger, store *dataset.Store, strat strategy.Strategy, manager *risk.Manager, sim *execution.Simulator, account *paper.Account, cfg Config, recorders ...paper.FillRecorder) *Engine {
	if cfg.OrderNotional <= 0 {
		cfg.OrderNotional = 10
	}
	if sim == nil {
		sim = execution.NewSimulator(execution.SimulatorConfig{}, rand.New(rand.NewSource(cfg.Seed)))
	}
	return &Engine{
		log:       log,
		store:     store,
		strat:     strat,
		risk:      manager,
		sim:       sim,
		account:   account,
		recorders: recorders,
		cfg:       cfg,
	}
}

// Run replays the window in timestamp order and returns the summary.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	samples, err := e.store.Range(ctx, e.cfg.From, e.cfg.To, e.cfg.Symbols)
	if err != nil {
		return Report{}, fmt.Errorf("load samples: %w", err)
	}

	var report Report
	report.Samples = len(samples)

	marks := make(map[string]float64)
	peak := e.account.StartingCash()

	aware, _ := e.strat.(strategy.AuraAware)

	for _, sample := range samples {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if sample.PriceSOL <= 0 {
			continue
		}
		marks[sample.Symbol] = sample.PriceSOL

		if aware != nil && sample.Mentions > 0 {
			aware.OnAura(sample.Symbol, sample.AuraScore, sample.Mentions)
		}

		sig := e.strat.OnTick(signal.Tick{
			Symbol:               sample.Symbol,
			Mint:                 sample.Mint,
			Price:                sample.PriceSOL,
			Size:                 sample.Size,
			Side:                 sample.Side,
			VirtualTokenReserves: sample.VirtualTokenReserves,
			VirtualSolReserves:   sample.VirtualSolReserves,
			CurveComplete:        sample.CurveComplete,
			Ts:                   sample.Ts,
		})

		snap := e.account.Snapshot(marks)
		e.risk.MarkEquity(snap.Equity)
		if snap.Equity > peak {
			peak = snap.Equity
		}
		if peak > 0 {
			if dd := (peak - snap.Equity) / peak; dd > report.MaxDrawdown {
				report.MaxDrawdown = dd
			}
		}

		if sig == nil {
			continue
		}
		report.Signals++

		order, ok := e.sizeOrder(sample, sig.Score)
		if !ok {
			continue
		}
		allowed, reason := e.risk.Allow(order.Qty*sample.PriceSOL, e.account.OpenNotional(marks))
		if !allowed {
			e.log.Debug().Str("sym", order.Symbol).Str("reason", reason).Msg("order rejected")
			continue
		}
		report.Orders++

		fills, err := e.sim.Execute(order, sample.PriceSOL, sample.Ts)
		if err != nil {
			e.log.Warn().Err(err).Str("sym", order.Symbol).Msg("simulated execution failed")
			continue
		}
		for _, fill := range fills {
			realized, err := e.account.Apply(fill)
			if err != nil {
				e.log.Debug().Err(err).Str("sym", fill.Symbol).Msg("fill rejected by account")
				continue
			}
			report.Fills++
			for _, rec := range e.recorders {
				rec.Record(fill)
			}
			if fill.Side == execution.Sell {
				e.risk.RecordPnL(realized)
				if realized > 0 {
					report.Wins++
				} else if realized < 0 {
					report.Losses++
				}
			}
		}
	}

	snap := e.account.Snapshot(marks)
	report.RealizedPnL = snap.RealizedPnL
	report.FeesPaid = snap.FeesPaid
	report.EndingEquity = snap.Equity
	if closed := report.Wins + report.Losses; closed > 0 {
		report.WinRate = float64(report.Wins) / float64(closed)
	}
	return report, nil
}

// sizeOrder converts a signal score into a long-only order.
func (e *Engine) sizeOrder(sample dataset.Sample, score float64) (execution.Order, bool) {
	if score > 0 {
		qty := e.cfg.OrderNotional / sample.PriceSOL
		if qty*sample.PriceSOL > e.account.AvailableCash() {
			return execution.Order{}, false
		}
		return execution.Order{Symbol: sample.Symbol, Side: execution.Buy, Qty: qty, Price: sample.PriceSOL}, true
	}
	held := e.account.Position(sample.Symbol)
	if held <= 0 {
		return execution.Order{}, false
	}
	return execution.Order{Symbol: sample.Symbol, Side: execution.Sell, Qty: held, Price: sample.PriceSOL}, true
}
