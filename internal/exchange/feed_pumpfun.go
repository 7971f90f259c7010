package exchange

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/BSmick6/aurabot/internal/chain"
	"github.com/BSmick6/aurabot/internal/metrics"
	"github.com/BSmick6/aurabot/internal/signal"
)

// trackedCurve is a launch whose bonding curve the feed keeps polling.
type trackedCurve struct {
	launch    chain.Launch
	symbol    string
	lastPrice float64
	state     chain.CurveState
}

func (f *Feed) runPumpFun(ctx context.Context, out chan<- signal.Tick) error {
	if f.launches == nil || f.curves == nil {
		return fmt.Errorf("pumpfun feed requires a launch source and curve fetcher")
	}

	launches := make(chan chain.Launch, 64)
	errCh := make(chan error, 1)
	go func() {
		errCh <- f.launches.Listen(ctx, launches)
	}()

	tracked := make(map[string]*trackedCurve) // mint -> curve
	ticker := time.NewTicker(f.curvePoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("launch stream: %w", err)
			}
			return ctx.Err()
		case launch := <-launches:
			tc, err := f.onLaunch(ctx, launch)
			if err != nil {
				f.log.Warn().Err(err).Str("mint", launch.Mint.String()).Msg("failed to fetch launch curve")
				continue
			}
			if tc == nil {
				continue
			}
			if len(tracked) >= f.maxTracked {
				evictOldest(tracked)
			}
			tracked[launch.Mint.String()] = tc
			if err := f.emitCurveTick(ctx, out, tc, tc.lastPrice, 1); err != nil {
				return err
			}
		case <-ticker.C:
			for mint, tc := range tracked {
				state, err := f.curves.FetchCurveState(ctx, tc.launch.Curve)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					f.log.Debug().Err(err).Str("symbol", tc.symbol).Msg("curve poll failed")
					continue
				}
				tc.state = *state
				if state.Complete {
					// Curve graduated to a DEX pool; record the terminal
					// snapshot and stop polling it here.
					f.log.Info().Str("symbol", tc.symbol).Msg("bonding curve complete, untracking")
					delete(tracked, mint)
					if err := f.emitCurveTick(ctx, out, tc, tc.lastPrice, 1); err != nil {
						return err
					}
					continue
				}
				price := state.PriceSOL()
				if price <= 0 {
					continue
				}
				side := 1
				if price < tc.lastPrice {
					side = -1
				}
				if err := f.emitCurveTick(ctx, out, tc, price, side); err != nil {
					return err
				}
				tc.lastPrice = price
			}
		}
	}
}

// onLaunch resolves and validates the bonding curve for a fresh launch.
func (f *Feed) onLaunch(ctx context.Context, launch chain.Launch) (*trackedCurve, error) {
	derived, err := chain.DeriveCurveAddress(launch.Mint)
	if err != nil {
		return nil, err
	}
	if !derived.Equals(launch.Curve) {
		// The derived address is the reliable one; the event has been wrong before.
		f.log.Warn().Str("event", launch.Curve.String()).Str("derived", derived.String()).
			Msg("bonding curve address mismatch, using derived")
		launch.Curve = derived
	}

	state, err := f.curves.FetchCurveState(ctx, launch.Curve)
	if err != nil {
		return nil, err
	}
	price := state.PriceSOL()
	if price <= 0 || price < f.minInitialPrice {
		f.log.Debug().Str("mint", launch.Mint.String()).Float64("price", price).
			Msg("skipping launch below minimum initial price")
		return nil, nil
	}

	symbol := composeLaunchAlias(launch.Symbol, launch.Mint.String())
	f.log.Info().
		Str("symbol", symbol).
		Str("name", launch.Name).
		Str("mint", launch.Mint.String()).
		Str("creator", launch.Creator.String()).
		Float64("initial_price_sol", price).
		Uint64("token_reserves", state.VirtualTokenReserves).
		Uint64("sol_reserves", state.VirtualSolReserves).
		Msg("new token launch")

	return &trackedCurve{
		launch:    launch,
		symbol:    symbol,
		lastPrice: price,
		state:     *state,
	}, nil
}

func (f *Feed) emitCurveTick(ctx context.Context, out chan<- signal.Tick, tc *trackedCurve, price float64, side int) error {
	size := curveTradeSize(tc.state.RealTokenReserves, price)
	tick := signal.Tick{
		Symbol:               tc.symbol,
		Mint:                 tc.launch.Mint.String(),
		Price:                price,
		Size:                 size,
		Side:                 side,
		VirtualTokenReserves: tc.state.VirtualTokenReserves,
		VirtualSolReserves:   tc.state.VirtualSolReserves,
		CurveComplete:        tc.state.Complete,
		Ts:                   time.Now().UTC(),
	}
	select {
	case out <- tick:
		metrics.TicksTotal.WithLabelValues(tick.Symbol).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// curveTradeSize proxies trade size from reserve depth; curves carry no trade tape.
func curveTradeSize(realTokenReserves uint64, price float64) float64 {
	if price <= 0 {
		return 1
	}
	tokens := float64(realTokenReserves) / math.Pow10(chain.TokenDecimals)
	if tokens <= 0 {
		return math.Max(1e-6, 1/price)
	}
	// A small sliver of the remaining reserve stands in for one trade.
	return math.Max(1e-6, tokens*0.0001)
}

func evictOldest(tracked map[string]*trackedCurve) {
	var oldestKey string
	var oldest time.Time
	for key, tc := range tracked {
		if oldestKey == "" || tc.launch.Ts.Before(oldest) {
			oldestKey = key
			oldest = tc.launch.Ts
		}
	}
	if oldestKey != "" {
		delete(tracked, oldestKey)
	}
}
