package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Model is the trained classifier behind the adapter.  Features lists the
// encoded columns it expects, in order.
type Model interface {
	Features() []string
	Predict(x []float64) (label int, raw float64, err error)
}

// LogisticModel is a fitted logistic regression exported as JSON.
type LogisticModel struct {
	FeatureNames []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    float64   `json:"threshold"`
}

// LoadLogisticModel reads a LogisticModel from path.
func LoadLogisticModel(path string) (*LogisticModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m LogisticModel
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(m.FeatureNames) == 0 || len(m.FeatureNames) != len(m.Coefficients) {
		return nil, fmt.Errorf("%s: %d features but %d coefficients", path, len(m.FeatureNames), len(m.Coefficients))
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		m.Threshold = 0.5
	}
	return &m, nil
}

func (m *LogisticModel) Features() []string { return m.FeatureNames }

// Predict returns 1 when the positive-class probability reaches the
// threshold, along with that probability.
func (m *LogisticModel) Predict(x []float64) (int, float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, 0, fmt.Errorf("%w: got %d values, want %d", ErrModel, len(x), len(m.Coefficients))
	}
	z := m.Intercept
	for i, v := range x {
		z += m.Coefficients[i] * v
	}
	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return 0, 0, fmt.Errorf("%w: non-numeric score", ErrModel)
	}
	if p >= m.Threshold {
		return 1, p, nil
	}
	return 0, p, nil
}
