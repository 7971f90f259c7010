// Package paper tracks a virtual account so strategies can trade without money.
package paper

import (
	"errors"
	"sync"

	"github.com/BSmick6/aurabot/internal/execution"
	"github.com/BSmick6/aurabot/internal/metrics"
)

// FillRecorder captures paper fills for later inspection.
type FillRecorder interface {
	Record(execution.Fill)
}

const epsilon = 1e-9

type positionState struct {
	Qty     float64
	AvgCost float64
}

// Account tracks virtual cash, realized PnL, and per-symbol positions while trading in paper mode.
type Account struct {
	mu                   sync.Mutex
	startingCash         float64
	cash                 float64
	realizedPnL          float64
	feesPaid             float64
	maxPositionPerSymbol float64
	positions            map[string]positionState
}

// PositionSnapshot exposes a read-only view of a single symbol position.
type PositionSnapshot struct {
	Qty         float64
	AvgCost     float64
	MarketValue float64
	Unrealized  float64
}

// Snapshot represents a thread-safe view of the account state, optionally marked to market using provided prices.
type Snapshot struct {
	Cash        float64
	RealizedPnL float64
	FeesPaid    float64
	Equity      float64
	Positions   map[string]PositionSnapshot
}

// NewAccount constructs an account populated with starting cash and optional position cap.
func NewAccount(startingCash, maxPositionPerSymbol float64) *Account {
	return &Account{
		startingCash:         startingCash,
		cash:                 startingCash,
		maxPositionPerSymbol: maxPositionPerSymbol,
		positions:            make(map[string]positionState),
	}
}

// StartingCash returns the initial bankroll used to compute drawdown.
func (a *Account) StartingCash() float64 { return a.startingCash }

// Apply settles a simulated fill against the account, mutating balances if
// the trade is affordable. Fees always come out of cash. Returns the realized
// PnL of the fill, zero for opens.
func (a *Account) Apply(fill execution.Fill) (float64, error) {
	if fill.Qty <= 0 {
		return 0, errors.New("quantity must be positive")
	}
	if fill.Price <= 0 {
		return 0, errors.New("price must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.positions[fill.Symbol]
	notional := fill.Qty * fill.Price

	var realized float64
	switch fill.Side {
	case execution.Buy:
		if notional+fill.Fee > a.cash+epsilon {
			return 0, errors.New("insufficient cash for buy")
		}
		newQty := state.Qty + fill.Qty
		if a.maxPositionPerSymbol > 0 && newQty > a.maxPositionPerSymbol+epsilon {
			return 0, errors.New("position limit exceeded")
		}
		newAvg := fill.Price
		if newQty > 0 {
			newAvg = ((state.AvgCost * state.Qty) + notional) / newQty
		}
		a.cash -= notional + fill.Fee
		a.positions[fill.Symbol] = positionState{Qty: newQty, AvgCost: newAvg}

	case execution.Sell:
		if state.Qty <= 0 || state.Qty+epsilon < fill.Qty {
			return 0, errors.New("insufficient position to sell")
		}
		realized = (fill.Price-state.AvgCost)*fill.Qty - fill.Fee
		a.realizedPnL += realized
		a.cash += notional - fill.Fee
		newQty := state.Qty - fill.Qty
		if newQty <= epsilon {
			delete(a.positions, fill.Symbol)
		} else {
			a.positions[fill.Symbol] = positionState{Qty: newQty, AvgCost: state.AvgCost}
		}

	default:
		return 0, errors.New("unknown order side")
	}

	a.feesPaid += fill.Fee
	metrics.FillsTotal.WithLabelValues(fill.Symbol, string(fill.Side)).Inc()
	return realized, nil
}

// Snapshot returns a copy of balances, optionally marked using the supplied prices map.
func (a *Account) Snapshot(prices map[string]float64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make(map[string]PositionSnapshot, len(a.positions))
	equity := a.cash
	for sym, pos := range a.positions {
		mark := prices[sym]
		marketValue := pos.Qty * mark
		unrealized := (mark - pos.AvgCost) * pos.Qty
		if mark == 0 {
			marketValue = 0
			unrealized = 0
		}
		positions[sym] = PositionSnapshot{
			Qty:         pos.Qty,
			AvgCost:     pos.AvgCost,
			MarketValue: marketValue,
			Unrealized:  unrealized,
		}
		equity += marketValue
	}

	return Snapshot{
		Cash:        a.cash,
		RealizedPnL: a.realizedPnL,
		FeesPaid:    a.feesPaid,
		Equity:      equity,
		Positions:   positions,
	}
}

// OpenNotional marks current positions against the supplied prices, falling
// back to average cost for symbols without a mark.
func (a *Account) OpenNotional(prices map[string]float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total float64
	for sym, pos := range a.positions {
		mark := prices[sym]
		if mark <= 0 {
			mark = pos.AvgCost
		}
		total += pos.Qty * mark
	}
	return total
}

// AvailableCash reports free cash that can be deployed into new longs.
func (a *Account) AvailableCash() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

// Position returns the current position size for the supplied symbol.
func (a *Account) Position(symbol string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[symbol].Qty
}

// RealizedPnL returns total closed-trade profit and loss.
func (a *Account) RealizedPnL() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realizedPnL
}
