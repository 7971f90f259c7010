// Package model trains and serves the aura classifier over synced samples.
package model

import (
	"math"

	"github.com/BSmick6/aurabot/internal/dataset"
)

// FeatureNames orders the feature vector; persisted alongside weights so a
// stale weights file cannot silently score a different layout.
var FeatureNames = []string{
	"momentum",
	"flow",
	"aura",
	"mention_velocity",
	"curve_depth",
}

// FeatureCount is the width of the feature vector.
const FeatureCount = 5

// Features derives the model inputs from a window of samples for one symbol,
// ordered oldest first. The last sample is the observation being scored.
func Features(window []dataset.Sample) []float64 {
	out := make([]float64, FeatureCount)
	if len(window) == 0 {
		return out
	}
	latest := window[len(window)-1]
	anchor := window[0]

	// Momentum: squashed percent change across the window, as the trading
	// strategies compute it.
	if anchor.PriceSOL > 0 {
		raw := (latest.PriceSOL - anchor.PriceSOL) / anchor.PriceSOL
		out[0] = clamp(math.Tanh(raw*3), -1, 1)
	}

	// Flow: net aggressor side across the window.
	var flow float64
	for _, sample := range window {
		if sample.Side > 0 {
			flow++
		} else if sample.Side < 0 {
			flow--
		}
	}
	out[1] = clamp(flow/float64(len(window)), -1, 1)

	out[2] = clamp(latest.AuraScore, -1, 1)

	// Mention velocity: mentions saturate quickly; 20+ mentions is a frenzy.
	out[3] = math.Tanh(float64(latest.Mentions) / 10)

	// Curve depth: SOL reserves in log space, saturating near 100 SOL.
	if latest.VirtualSolReserves > 0 {
		sol := float64(latest.VirtualSolReserves) / 1e9
		out[4] = clamp(math.Log10(1+sol)/2, 0, 1)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
