package forecast

import (
	"errors"
	"math/rand"
	"testing"

	"energy-backtest/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var names = []string{"a", "b", "c", "d"}

func randomDesign(n int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	for i := range X {
		X[i] = []float64{rng.Float64() * 100, rng.NormFloat64() * 20, rng.Float64() * 5000, rng.Float64() * 800}
	}
	return X
}

func TestLinear_RecoversExactCoefficients(t *testing.T) {
	X := randomDesign(200, 1)
	y := make([]float64, len(X))
	for i, x := range X {
		y[i] = 3 + 2*x[0] - x[1] + 0.5*x[2] + 0*x[3]
	}

	m := NewLinear(names)
	require.NoError(t, m.Fit(X, y))

	assert.InDelta(t, 3, m.Intercept(), 1e-6)
	want := []float64{2, -1, 0.5, 0}
	for j, c := range m.Coefficients() {
		assert.InDelta(t, want[j], c, 1e-8, "coef %d", j)
	}

	pred, err := m.Predict([][]float64{{1, 1, 1, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 4.5, pred[0], 1e-6)

	d := m.Diagnostics()
	assert.Equal(t, "coefficient", d.Kind)
	require.NotNil(t, d.Intercept)
	require.Len(t, d.Weights, 4)
	assert.Equal(t, "c", d.Weights[2].Feature)
}

func TestLinear_SingularDesign(t *testing.T) {
	cases := map[string]func(x []float64){
		"duplicate column": func(x []float64) { x[3] = x[2] },
		"constant column":  func(x []float64) { x[1] = 7 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			X := randomDesign(50, 2)
			y := make([]float64, len(X))
			for i, x := range X {
				mutate(x)
				y[i] = x[0]
			}
			m := NewLinear(names)
			err := m.Fit(X, y)
			var se *model.SingularMatrixError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, 50, se.Rows)
			assert.Equal(t, []string{"const", "a", "b", "c", "d"}, se.Features)

			_, err = m.Predict(X)
			assert.ErrorIs(t, err, ErrNotFitted)
		})
	}
}

func TestLinear_TooFewRows(t *testing.T) {
	X := randomDesign(3, 3)
	err := NewLinear(names).Fit(X, []float64{1, 2, 3})
	var se *model.SingularMatrixError
	assert.True(t, errors.As(err, &se))
}

func TestLinear_ShapeErrors(t *testing.T) {
	m := NewLinear(names)
	assert.Error(t, m.Fit(nil, nil))
	assert.Error(t, m.Fit([][]float64{{1, 2}}, []float64{1}))
	assert.Error(t, m.Fit(randomDesign(10, 4), []float64{1}))
}

func stepData(n int) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(7))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		x0 := float64(i % 10)
		X[i] = []float64{x0, rng.Float64(), rng.Float64(), rng.Float64()}
		if x0 >= 5 {
			y[i] = 10
		}
	}
	return X, y
}

func TestForest_LearnsStepAndImportance(t *testing.T) {
	X, y := stepData(200)
	f := NewForest(names, ForestParams{Trees: 20, Seed: 42})
	require.NoError(t, f.Fit(X, y))

	pred, err := f.Predict([][]float64{{2, 0.5, 0.5, 0.5}, {8, 0.5, 0.5, 0.5}})
	require.NoError(t, err)
	assert.InDelta(t, 0, pred[0], 1e-9)
	assert.InDelta(t, 10, pred[1], 1e-9)

	imp := f.Importances()
	require.Len(t, imp, 4)
	assert.InDelta(t, 1, imp[0], 1e-9)
	sum := 0.0
	for _, v := range imp {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-9)
	assert.Equal(t, "importance", f.Diagnostics().Kind)
}

func TestForest_ReproducibleAcrossWorkers(t *testing.T) {
	X := randomDesign(150, 5)
	y := make([]float64, len(X))
	for i, x := range X {
		y[i] = x[0]*x[1]/10 + x[3]/100
	}
	probe := randomDesign(20, 6)

	fit := func(workers int) []float64 {
		f := NewForest(names, ForestParams{Trees: 15, Seed: 42, MaxFeatures: 2, Workers: workers})
		require.NoError(t, f.Fit(X, y))
		out, err := f.Predict(probe)
		require.NoError(t, err)
		return out
	}
	a := fit(1)
	b := fit(8)
	assert.Equal(t, a, b)

	other := NewForest(names, ForestParams{Trees: 15, Seed: 43, MaxFeatures: 2})
	require.NoError(t, other.Fit(X, y))
	c, err := other.Predict(probe)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestForest_MaxDepthOneIsStump(t *testing.T) {
	X, y := stepData(100)
	f := NewForest(names, ForestParams{Trees: 3, Seed: 1, MaxDepth: 1})
	require.NoError(t, f.Fit(X, y))
	for _, tr := range f.trees {
		assert.LessOrEqual(t, len(tr.nodes), 3)
	}
}

func TestForest_NotFitted(t *testing.T) {
	_, err := NewForest(names, ForestParams{}).Predict([][]float64{{1, 2, 3, 4}})
	assert.ErrorIs(t, err, ErrNotFitted)
	assert.Equal(t, 100, NewForest(names, ForestParams{}).Params().Trees)
}

func TestNew(t *testing.T) {
	m, err := New("OLS", names, ForestParams{})
	require.NoError(t, err)
	assert.Equal(t, ModelLinear, m.Name())

	m, err = New("random_forest", names, DefaultForestParams())
	require.NoError(t, err)
	assert.Equal(t, ModelForest, m.Name())

	_, err = New("xgboost", names, ForestParams{})
	assert.Error(t, err)
}

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(10, 0.2, 42)
	assert.Len(t, test, 2)
	assert.Len(t, train, 8)
	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train2, test2 := TrainTestSplit(10, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	all, none := TrainTestSplit(5, 0, 42)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, all)
	assert.Empty(t, none)
}

func TestEvaluate(t *testing.T) {
	y := []float64{1, 2, 3, 4}
	s := Evaluate(y, y)
	assert.Equal(t, 0.0, s.MSE)
	assert.Equal(t, 1.0, s.R2)

	s = Evaluate(y, []float64{2.5, 2.5, 2.5, 2.5})
	assert.InDelta(t, 1.25, s.MSE, 1e-12)
	assert.InDelta(t, 0, s.R2, 1e-12)

	s = Evaluate([]float64{5, 5}, []float64{4, 6})
	assert.Equal(t, 0.0, s.R2)
	assert.Equal(t, 2, s.Rows)
}
