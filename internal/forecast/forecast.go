package forecast

import (
	"errors"
	"fmt"
	"strings"
)

// Model names accepted by New.
const (
	ModelLinear = "ols"
	ModelForest = "forest"
)

// ErrNotFitted is returned by Predict before a successful Fit.
var ErrNotFitted = errors.New("model is not fitted")

// Forecaster is a point forecaster of the next intraday price.
// X is row-major: one row per observation, one column per feature.
type Forecaster interface {
	Name() string
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
	Diagnostics() Diagnostics
}

// FeatureWeight is a per-feature coefficient or importance.
type FeatureWeight struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// Diagnostics describes a fitted model for reporting.
// Kind is "coefficient" for the linear model and "importance" for the forest.
type Diagnostics struct {
	Model     string          `json:"model"`
	Kind      string          `json:"kind"`
	Intercept *float64        `json:"intercept,omitempty"`
	Weights   []FeatureWeight `json:"weights"`
}

// New builds a forecaster by name. Aliases: "linear" for ols, "rf" and
// "random_forest" for forest.
func New(name string, features []string, fp ForestParams) (Forecaster, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ModelLinear, "linear":
		return NewLinear(features), nil
	case ModelForest, "rf", "random_forest":
		return NewForest(features, fp), nil
	default:
		return nil, fmt.Errorf("unknown forecast model %q", name)
	}
}

// checkMatrix validates a design matrix and returns its shape.
func checkMatrix(X [][]float64, width int) (int, error) {
	if len(X) == 0 {
		return 0, errors.New("empty design matrix")
	}
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	return len(X), nil
}

func weights(names []string, values []float64) []FeatureWeight {
	out := make([]FeatureWeight, len(values))
	for i, v := range values {
		name := fmt.Sprintf("x%d", i)
		if i < len(names) {
			name = names[i]
		}
		out[i] = FeatureWeight{Feature: name, Value: v}
	}
	return out
}
