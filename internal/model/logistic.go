package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Logistic is a binary classifier predicting a short-horizon up-move.
type Logistic struct {
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Features  []string  `json:"features"`
	TrainedAt time.Time `json:"trained_at"`
	Samples   int       `json:"samples"`
}

// NewLogistic returns an untrained model with zeroed weights.
func NewLogistic() *Logistic {
	return &Logistic{
		Weights:  make([]float64, FeatureCount),
		Features: append([]string(nil), FeatureNames...),
	}
}

// Predict returns the probability of an up-move for one feature vector.
func (m *Logistic) Predict(x []float64) float64 {
	return sigmoid(m.logit(x))
}

// Score maps the prediction onto [-1, 1] for use as a strategy bias.
func (m *Logistic) Score(x []float64) float64 {
	return 2*m.Predict(x) - 1
}

func (m *Logistic) logit(x []float64) float64 {
	z := m.Bias
	for i, w := range m.Weights {
		if i >= len(x) {
			break
		}
		z += w * x[i]
	}
	return z
}

// fitOne applies one SGD step for a labeled example.
func (m *Logistic) fitOne(x []float64, label, learningRate float64) {
	pred := m.Predict(x)
	grad := pred - label
	m.Bias -= learningRate * grad
	for i := range m.Weights {
		if i >= len(x) {
			break
		}
		m.Weights[i] -= learningRate * grad * x[i]
	}
}

// Save writes the model as JSON, creating parent directories as needed.
func (m *Logistic) Save(path string) error {
	if path == "" {
		return fmt.Errorf("model path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load reads a model from disk and validates its feature layout.
func Load(path string) (*Logistic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m Logistic
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(m.Weights) != FeatureCount {
		return nil, fmt.Errorf("model has %d weights, expected %d", len(m.Weights), FeatureCount)
	}
	for i, name := range m.Features {
		if i >= len(FeatureNames) || name != FeatureNames[i] {
			return nil, fmt.Errorf("model feature layout mismatch at %d: %s", i, name)
		}
	}
	return &m, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
