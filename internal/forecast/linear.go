package forecast

import (
	"fmt"
	"math"

	"energy-backtest/internal/model"

	"gonum.org/v1/gonum/mat"
)

// maxCond is the largest condition number of the design matrix accepted
// before the fit is rejected as singular.
const maxCond = 1e12

// Linear is an ordinary least squares model with an intercept, solved by QR
// decomposition of the design matrix.
type Linear struct {
	features  []string
	intercept float64
	coef      []float64
	rows      int
	fitted    bool
}

// NewLinear returns an unfitted OLS model over the named features.
func NewLinear(features []string) *Linear {
	return &Linear{features: append([]string(nil), features...)}
}

func (m *Linear) Name() string { return ModelLinear }

// Fit solves min ||[1 X]b - y||². A rank-deficient design (duplicate or
// constant columns, fewer rows than parameters) returns *model.SingularMatrixError.
func (m *Linear) Fit(X [][]float64, y []float64) error {
	p := len(m.features)
	n, err := checkMatrix(X, p)
	if err != nil {
		return err
	}
	if len(y) != n {
		return fmt.Errorf("target has %d rows, design has %d", len(y), n)
	}
	cols := p + 1
	if n < cols {
		return m.singular(n, math.Inf(1))
	}

	design := mat.NewDense(n, cols, nil)
	for i, row := range X {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}

	var qr mat.QR
	qr.Factorize(design)
	cond := qr.Cond()
	if math.IsNaN(cond) || cond > maxCond {
		return m.singular(n, cond)
	}

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		if _, ok := err.(mat.Condition); ok {
			return m.singular(n, cond)
		}
		return fmt.Errorf("solve least squares: %w", err)
	}

	m.intercept = beta.AtVec(0)
	m.coef = make([]float64, p)
	for j := range m.coef {
		m.coef[j] = beta.AtVec(j + 1)
	}
	m.rows = n
	m.fitted = true
	return nil
}

func (m *Linear) singular(rows int, cond float64) error {
	m.fitted = false
	return &model.SingularMatrixError{
		Features: append([]string{"const"}, m.features...),
		Rows:     rows,
		Cond:     cond,
	}
}

func (m *Linear) Predict(X [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if _, err := checkMatrix(X, len(m.coef)); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = m.PredictOne(row)
	}
	return out, nil
}

// PredictOne scores a single feature vector. The model must be fitted.
func (m *Linear) PredictOne(x []float64) float64 {
	v := m.intercept
	for j, c := range m.coef {
		v += c * x[j]
	}
	return v
}

// Intercept returns the fitted constant term.
func (m *Linear) Intercept() float64 { return m.intercept }

// Coefficients returns the fitted slopes in feature order.
func (m *Linear) Coefficients() []float64 { return append([]float64(nil), m.coef...) }

func (m *Linear) Diagnostics() Diagnostics {
	d := Diagnostics{Model: ModelLinear, Kind: "coefficient"}
	if m.fitted {
		c := m.intercept
		d.Intercept = &c
		d.Weights = weights(m.features, m.coef)
	}
	return d
}
