package forecast

// Score holds goodness-of-fit numbers for a set of predictions.
type Score struct {
	Rows int     `json:"rows"`
	MSE  float64 `json:"mse"`
	R2   float64 `json:"r2"`
}

// Evaluate computes MSE and R² of yhat against y.
// R² is 1 for a perfect fit of a constant target and 0 for any other fit of one.
func Evaluate(y, yhat []float64) Score {
	n := len(y)
	if n == 0 || len(yhat) != n {
		return Score{}
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)

	ssRes, ssTot := 0.0, 0.0
	for i, v := range y {
		d := v - yhat[i]
		ssRes += d * d
		m := v - mean
		ssTot += m * m
	}
	s := Score{Rows: n, MSE: ssRes / float64(n)}
	switch {
	case ssTot > 0:
		s.R2 = 1 - ssRes/ssTot
	case ssRes == 0:
		s.R2 = 1
	}
	return s
}
