// Package strategy contains trading signal generation logic wired into ticks and samples.
package strategy

import (
	"strings"

	"github.com/BSmick6/aurabot/internal/model"
	sig "github.com/BSmick6/aurabot/internal/signal"
)

// Strategy defines behaviour shared by strategy implementations used by the bot.
type Strategy interface {
	OnTick(t sig.Tick) *sig.Signal
	Name() string
}

// AuraAware is implemented by strategies that also consume aura readings.
type AuraAware interface {
	OnAura(symbolKeyword string, score float64, mentions int)
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	OBILevels         int
	OBIThreshold      float64
	VolWindowSecs     int
	TrendThreshold    float64
	TrendWindowSecs   int
	TrendMinVolumeUSD float64
	AuraThreshold     float64
	AuraModelWeight   float64
}

// Build returns a strategy implementation matching the configured mode. The aura
// mode needs a trained model; passing nil falls back to OBI momentum.
func Build(mode string, params Params, m *model.Logistic) Strategy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "aura":
		if m != nil {
			return NewAura(m, params.AuraThreshold, params.AuraModelWeight, params.VolWindowSecs)
		}
		return NewOBIMomentum(params.OBIThreshold, params.VolWindowSecs)
	case "trend", "trend_follow", "trend_follower":
		return NewTrendFollower(params.TrendThreshold, params.TrendWindowSecs, params.TrendMinVolumeUSD)
	case "", "obi", "obi_momentum":
		return NewOBIMomentum(params.OBIThreshold, params.VolWindowSecs)
	default:
		return NewOBIMomentum(params.OBIThreshold, params.VolWindowSecs)
	}
}
