// Package signal standardizes payloads shared between data ingestion and strategy layers.
package signal

import "time"

// Tick models the essential pieces of market data consumed by strategies.
// Ticks minted from a bonding curve also carry the curve snapshot that priced
// them; off-chain sources leave those fields zero.
type Tick struct {
	Symbol               string
	Mint                 string // token mint address for on-chain sources, empty otherwise
	Price                float64
	Size                 float64
	Side                 int    // +1 buy, -1 sell (aggressor)
	VirtualTokenReserves uint64 // bonding curve virtual token reserves
	VirtualSolReserves   uint64 // bonding curve virtual SOL reserves, lamports
	CurveComplete        bool   // curve graduated to a DEX pool
	Ts                   time.Time
}

// Signal expresses a trading bias produced by a strategy implementation.
type Signal struct {
	Symbol string
	Score  float64 // positive long bias, negative short bias
	Reason string
	Ts     time.Time
}
