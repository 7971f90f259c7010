// Package execution handles order lifecycle and simulated fills.
package execution

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/BSmick6/aurabot/internal/metrics"
)

// Side enumerates order directions used by the executor.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "BUY"
	// Sell indicates a short order.
	Sell Side = "SELL"
)

// Order represents a placement request the executor can process.
type Order struct {
	Symbol string
	Side   Side
	Qty    float64
	Price  float64 // 0 for market (avoid in real life)
}

// Fill is the result of executing an order, or a slice of it.
type Fill struct {
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Qty       float64   `json:"qty"`
	Price     float64   `json:"price"`
	Fee       float64   `json:"fee"`
	Ts        time.Time `json:"ts"`
	Liquidity string    `json:"liquidity"` // "full" or "partial"
}

// Notional returns the cash value of the fill.
func (f Fill) Notional() float64 { return f.Qty * f.Price }

// Executor implements a logger-backed submitter for orders.
type Executor struct{ log zerolog.Logger }

// NewExecutor wraps a zerolog logger for order submissions.
func NewExecutor(log zerolog.Logger) *Executor { return &Executor{log: log} }

// Submit logs out the order request; live placement is intentionally absent.
func (executor *Executor) Submit(order Order) error {
	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	executor.log.Info().Str("sym", order.Symbol).Str("side", string(order.Side)).Float64("qty", order.Qty).Float64("px", order.Price).Msg("submit order (paper)")
	return nil
}
