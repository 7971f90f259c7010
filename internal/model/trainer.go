package model

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/BSmick6/aurabot/internal/dataset"
)

const (
	defaultLearningRate = 0.05
	defaultEpochs       = 8
	defaultHorizon      = 5 * time.Minute
	featureWindow       = 12 // samples of per-symbol context per example
)

// TrainerConfig bundles the hyperparameters read from the model config section.
type TrainerConfig struct {
	LearningRate float64
	Epochs       int
	LabelHorizon time.Duration
	MinSamples   int
}

type example struct {
	x     []float64
	label float64
	ts    time.Time
}

// Train fits a logistic model on stored samples. Samples are grouped per symbol,
// windowed into feature vectors, and labeled by the sign of the forward return
// over the horizon. Returns an error when there is too little data to learn from.
func Train(samples []dataset.Sample, cfg TrainerConfig, log zerolog.Logger) (*Logistic, error) {
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = defaultLearningRate
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = defaultEpochs
	}
	if cfg.LabelHorizon <= 0 {
		cfg.LabelHorizon = defaultHorizon
	}

	examples := buildExamples(samples, cfg.LabelHorizon)
	if len(examples) < cfg.MinSamples {
		return nil, fmt.Errorf("need at least %d labeled examples, have %d", cfg.MinSamples, len(examples))
	}

	// Time order keeps training deterministic for a fixed dataset.
	sort.Slice(examples, func(i, j int) bool { return examples[i].ts.Before(examples[j].ts) })

	m := NewLogistic()
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		var loss float64
		for _, ex := range examples {
			m.fitOne(ex.x, ex.label, cfg.LearningRate)
			loss += logLoss(m.Predict(ex.x), ex.label)
		}
		log.Debug().Int("epoch", epoch+1).Float64("avg_loss", loss/float64(len(examples))).Msg("training epoch done")
	}

	m.TrainedAt = time.Now().UTC()
	m.Samples = len(examples)
	log.Info().Int("examples", len(examples)).Int("epochs", cfg.Epochs).Msg("model trained")
	return m, nil
}

// buildExamples windows per-symbol history and attaches forward-return labels.
func buildExamples(samples []dataset.Sample, horizon time.Duration) []example {
	bySymbol := make(map[string][]dataset.Sample)
	for _, sample := range samples {
		if sample.PriceSOL <= 0 {
			continue
		}
		bySymbol[sample.Symbol] = append(bySymbol[sample.Symbol], sample)
	}

	var out []example
	for _, series := range bySymbol {
		sort.Slice(series, func(i, j int) bool { return series[i].Ts.Before(series[j].Ts) })
		for i := range series {
			label, ok := forwardLabel(series, i, horizon)
			if !ok {
				continue
			}
			start := i - featureWindow + 1
			if start < 0 {
				start = 0
			}
			out = append(out, example{
				x:     Features(series[start : i+1]),
				label: label,
				ts:    series[i].Ts,
			})
		}
	}
	return out
}

// forwardLabel finds the first sample at least horizon ahead and compares prices.
func forwardLabel(series []dataset.Sample, i int, horizon time.Duration) (float64, bool) {
	target := series[i].Ts.Add(horizon)
	for j := i + 1; j < len(series); j++ {
		if series[j].Ts.Before(target) {
			continue
		}
		if series[j].PriceSOL > series[i].PriceSOL {
			return 1, true
		}
		return 0, true
	}
	return 0, false // series ends before the horizon
}

func logLoss(pred, label float64) float64 {
	const eps = 1e-12
	if pred < eps {
		pred = eps
	}
	if pred > 1-eps {
		pred = 1 - eps
	}
	if label > 0.5 {
		return -math.Log(pred)
	}
	return -math.Log(1 - pred)
}
