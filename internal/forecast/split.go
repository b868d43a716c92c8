package forecast

import (
	"math"
	"math/rand"
	"sort"
)

// TrainTestSplit shuffles 0..n-1 with a seeded source and holds out
// ceil(testFraction*n) indices. Both index sets are returned sorted.
// testFraction <= 0 puts every row into train.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	if n <= 0 {
		return nil, nil
	}
	if testFraction <= 0 {
		train = make([]int, n)
		for i := range train {
			train[i] = i
		}
		return train, nil
	}
	if testFraction > 1 {
		testFraction = 1
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	sort.Ints(test)
	sort.Ints(train)
	return train, test
}

// Rows selects rows of X (and y when non-nil) by index.
func Rows(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	var ys []float64
	if y != nil {
		ys = make([]float64, len(idx))
	}
	for k, i := range idx {
		xs[k] = X[i]
		if y != nil {
			ys[k] = y[i]
		}
	}
	return xs, ys
}
