package strategy

import (
	"testing"
	"time"

	"github.com/BSmick6/aurabot/internal/model"
	"github.com/BSmick6/aurabot/internal/signal"
)

func auraModel(weights []float64, bias float64) *model.Logistic {
	m := model.NewLogistic()
	copy(m.Weights, weights)
	m.Bias = bias
	return m
}

func TestAuraEmitsLongOnBullishReading(t *testing.T) {
	// Weight the aura feature heavily so the classifier follows the reading.
	strat := NewAura(auraModel([]float64{0, 0, 4, 0, 0}, 0), 0.2, 0.7, 120)
	strat.OnAura("WIF", 0.9, 40)

	now := time.Now()
	var sig *signal.Signal
	for i := 0; i < 4; i++ {
		sig = strat.OnTick(signal.Tick{
			Symbol: "WIFSOL",
			Price:  0.01 * (1 + 0.01*float64(i)),
			Size:   2000,
			Side:   1,
			Ts:     now.Add(time.Duration(i-3) * time.Second),
		})
	}
	if sig == nil {
		t.Fatalf("expected long signal")
	}
	if sig.Score <= 0 {
		t.Fatalf("expected positive score, got %.4f", sig.Score)
	}
}

func TestAuraEmitsShortOnBearishReading(t *testing.T) {
	strat := NewAura(auraModel([]float64{0, 0, 4, 0, 0}, 0), 0.2, 0.7, 120)
	strat.OnAura("BODEN", -0.9, 25)

	now := time.Now()
	var sig *signal.Signal
	for i := 0; i < 4; i++ {
		sig = strat.OnTick(signal.Tick{
			Symbol: "BODENSOL",
			Price:  0.02 * (1 - 0.01*float64(i)),
			Size:   2000,
			Side:   -1,
			Ts:     now.Add(time.Duration(i-3) * time.Second),
		})
	}
	if sig == nil {
		t.Fatalf("expected short signal")
	}
	if sig.Score >= 0 {
		t.Fatalf("expected negative score, got %.4f", sig.Score)
	}
}

func TestAuraStaysQuietWithoutReading(t *testing.T) {
	// Neutral model and no reading keeps the blended score inside the threshold.
	strat := NewAura(auraModel([]float64{0, 0, 0, 0, 0}, 0), 0.2, 0.7, 120)

	now := time.Now()
	var sig *signal.Signal
	for i := 0; i < 4; i++ {
		sig = strat.OnTick(signal.Tick{
			Symbol: "QUIETSOL",
			Price:  1,
			Size:   100,
			Side:   1,
			Ts:     now.Add(time.Duration(i-3) * time.Second),
		})
	}
	if sig != nil {
		t.Fatalf("expected nil signal, got score %.4f", sig.Score)
	}
}

func TestAuraReadingMatchesAlias(t *testing.T) {
	strat := NewAura(auraModel([]float64{0, 0, 0, 0, 0}, 0), 0.2, 0.5, 120)
	strat.OnAura("wif", 1, 80)

	sig := strat.OnTick(signal.Tick{Symbol: "WIF-ab12cd", Price: 0.005, Size: 500, Side: 1, Ts: time.Now()})
	if sig == nil {
		t.Fatalf("expected signal from keyword match on alias")
	}
	if sig.Score <= 0 {
		t.Fatalf("expected positive score, got %.4f", sig.Score)
	}
}

func TestAuraIgnoresGraduatedCurve(t *testing.T) {
	strat := NewAura(auraModel([]float64{0, 0, 1, 0, 0}, 0), 0.2, 0.5, 120)
	strat.OnAura("wif", 1, 50)

	sig := strat.OnTick(signal.Tick{Symbol: "WIFSOL", Price: 0.01, Size: 500, Side: 1, CurveComplete: true, Ts: time.Now()})
	if sig != nil {
		t.Fatalf("graduation snapshot should not trade: %+v", sig)
	}
}
