package forecast

import (
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForestParams configures the bagged regression-tree ensemble.
// Zero values take the defaults noted per field.
type ForestParams struct {
	Trees           int   `yaml:"trees" json:"trees"`                         // 100
	Seed            int64 `yaml:"seed" json:"seed"`                           // used as given; 0 is a valid seed
	MaxDepth        int   `yaml:"max_depth" json:"max_depth"`                 // 0: unlimited
	MinSamplesLeaf  int   `yaml:"min_samples_leaf" json:"min_samples_leaf"`   // 1
	MinSamplesSplit int   `yaml:"min_samples_split" json:"min_samples_split"` // 2
	MaxFeatures     int   `yaml:"max_features" json:"max_features"`           // 0: all features
	Workers         int   `yaml:"workers" json:"workers"`                     // 0: GOMAXPROCS
}

// DefaultForestParams mirrors the reference configuration: 100 trees, seed 42.
func DefaultForestParams() ForestParams {
	return ForestParams{Trees: 100, Seed: 42, MinSamplesLeaf: 1, MinSamplesSplit: 2}
}

func (p ForestParams) withDefaults() ForestParams {
	if p.Trees <= 0 {
		p.Trees = 100
	}
	if p.MinSamplesLeaf <= 0 {
		p.MinSamplesLeaf = 1
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.Workers <= 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}
	return p
}

// Forest is a bagging ensemble of regression trees. Each tree is fitted on a
// bootstrap sample; the prediction is the mean over trees.
//
// Every tree gets its own seed drawn in order from a source seeded with
// Params.Seed, so a fit is reproducible whatever the worker count.
type Forest struct {
	features    []string
	params      ForestParams
	trees       []*regressionTree
	importances []float64
}

// NewForest returns an unfitted forest over the named features.
func NewForest(features []string, p ForestParams) *Forest {
	return &Forest{features: append([]string(nil), features...), params: p.withDefaults()}
}

func (f *Forest) Name() string { return ModelForest }

// Params returns the effective parameters, defaults applied.
func (f *Forest) Params() ForestParams { return f.params }

func (f *Forest) Fit(X [][]float64, y []float64) error {
	nf := len(f.features)
	n, err := checkMatrix(X, nf)
	if err != nil {
		return err
	}
	if len(y) != n {
		return fmt.Errorf("target has %d rows, design has %d", len(y), n)
	}

	p := f.params
	tp := treeParams{
		maxDepth:        p.MaxDepth,
		minSamplesLeaf:  p.MinSamplesLeaf,
		minSamplesSplit: p.MinSamplesSplit,
		maxFeatures:     p.MaxFeatures,
	}

	master := rand.New(rand.NewSource(p.Seed))
	seeds := make([]int64, p.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]*regressionTree, p.Trees)
	imps := make([][]float64, p.Trees)

	var g errgroup.Group
	g.SetLimit(p.Workers)
	for i := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seeds[i]))
			sample := make([]int, n)
			for k := range sample {
				sample[k] = rng.Intn(n)
			}
			trees[i], imps[i] = growTree(X, y, sample, tp, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.trees = trees
	f.importances = meanImportance(imps, nf)
	return nil
}

// meanImportance normalizes each tree's impurity decreases to sum to one,
// averages them over trees and normalizes again. Trees that never split
// contribute nothing.
func meanImportance(perTree [][]float64, nf int) []float64 {
	out := make([]float64, nf)
	for _, imp := range perTree {
		total := 0.0
		for _, v := range imp {
			total += v
		}
		if total <= 0 {
			continue
		}
		for j, v := range imp {
			out[j] += v / total
		}
	}
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for j := range out {
			out[j] /= total
		}
	}
	return out
}

func (f *Forest) Predict(X [][]float64) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrNotFitted
	}
	if _, err := checkMatrix(X, len(f.features)); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		s := 0.0
		for _, t := range f.trees {
			s += t.predict(row)
		}
		out[i] = s / float64(len(f.trees))
	}
	return out, nil
}

// Importances returns the normalized mean impurity decrease per feature.
func (f *Forest) Importances() []float64 { return append([]float64(nil), f.importances...) }

func (f *Forest) Diagnostics() Diagnostics {
	d := Diagnostics{Model: ModelForest, Kind: "importance"}
	if len(f.trees) > 0 {
		d.Weights = weights(f.features, f.importances)
	}
	return d
}
