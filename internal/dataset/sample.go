// Package dataset joins on-chain ticks with aura readings and persists the result.
package dataset

import "time"

// Sample is one row of the synced dataset: a market observation annotated with
// the freshest aura reading that landed inside the sync tolerance.
type Sample struct {
	Symbol               string    `json:"symbol"`
	Mint                 string    `json:"mint,omitempty"`
	Ts                   time.Time `json:"ts"`
	PriceSOL             float64   `json:"price_sol"`
	Size                 float64   `json:"size"`
	Side                 int       `json:"side"`
	VirtualTokenReserves uint64    `json:"virtual_token_reserves,omitempty"`
	VirtualSolReserves   uint64    `json:"virtual_sol_reserves,omitempty"`
	CurveComplete        bool      `json:"curve_complete,omitempty"`
	AuraScore            float64   `json:"aura_score"`
	Mentions             int       `json:"mentions"`
	Source               string    `json:"source"`
}

// Writer persists samples; implemented by Store and JSONLWriter.
type Writer interface {
	Append(sample Sample) error
}
