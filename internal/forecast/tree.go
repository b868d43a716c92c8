package forecast

import (
	"cmp"
	"math/rand"
	"slices"
)

// minGain is the smallest SSE reduction treated as a real split.
const minGain = 1e-12

type treeNode struct {
	feature   int // -1 for a leaf
	threshold float64
	left      int
	right     int
	value     float64
}

// regressionTree is a CART tree with squared-error splits and
// midpoint thresholds. Samples with x[feature] <= threshold go left.
type regressionTree struct {
	nodes []treeNode
}

func (t *regressionTree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.feature < 0 {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

type treeParams struct {
	maxDepth        int
	minSamplesLeaf  int
	minSamplesSplit int
	maxFeatures     int
}

type treeBuilder struct {
	X      [][]float64
	y      []float64
	params treeParams
	rng    *rand.Rand

	nodes      []treeNode
	importance []float64
	order      []int
}

type split struct {
	feature   int
	threshold float64
	nLeft     int
	gain      float64
}

// growTree fits a tree on the given sample (indices may repeat, as in a
// bootstrap) and returns it with its unnormalized impurity decreases.
func growTree(X [][]float64, y []float64, sample []int, p treeParams, rng *rand.Rand) (*regressionTree, []float64) {
	b := &treeBuilder{
		X:          X,
		y:          y,
		params:     p,
		rng:        rng,
		importance: make([]float64, len(X[0])),
		order:      make([]int, len(sample)),
	}
	b.grow(sample, 0)
	return &regressionTree{nodes: b.nodes}, b.importance
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	n := len(idx)
	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		v := b.y[i]
		sum += v
		sumSq += v * v
	}
	id := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{feature: -1, value: sum / float64(n)})

	p := b.params
	if n < p.minSamplesSplit || n < 2*p.minSamplesLeaf {
		return id
	}
	if p.maxDepth > 0 && depth >= p.maxDepth {
		return id
	}
	sse := sumSq - sum*sum/float64(n)
	if sse <= minGain {
		return id
	}

	best, ok := b.bestSplit(idx, sum)
	if !ok {
		return id
	}
	b.importance[best.feature] += best.gain

	// Partition in place: left block keeps x <= threshold.
	lo, hi := 0, n-1
	for lo <= hi {
		if b.X[idx[lo]][best.feature] <= best.threshold {
			lo++
		} else {
			idx[lo], idx[hi] = idx[hi], idx[lo]
			hi--
		}
	}

	left := b.grow(idx[:lo], depth+1)
	right := b.grow(idx[lo:], depth+1)
	b.nodes[id].feature = best.feature
	b.nodes[id].threshold = best.threshold
	b.nodes[id].left = left
	b.nodes[id].right = right
	return id
}

// bestSplit scans candidate features for the threshold with the largest
// SSE reduction. Minimizing child SSE is the same as maximizing
// sumL²/nL + sumR²/nR, which needs only running sums.
func (b *treeBuilder) bestSplit(idx []int, total float64) (split, bool) {
	n := len(idx)
	nf := len(b.X[idx[0]])
	features := b.candidates(nf)
	parent := total * total / float64(n)
	minLeaf := b.params.minSamplesLeaf

	best := split{gain: minGain}
	found := false
	order := b.order[:n]
	for _, f := range features {
		copy(order, idx)
		slices.SortFunc(order, func(a, c int) int { return cmp.Compare(b.X[a][f], b.X[c][f]) })

		sumL := 0.0
		for k := 1; k < n; k++ {
			sumL += b.y[order[k-1]]
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo, hi := b.X[order[k-1]][f], b.X[order[k]][f]
			if lo >= hi {
				continue
			}
			sumR := total - sumL
			gain := sumL*sumL/float64(k) + sumR*sumR/float64(n-k) - parent
			if gain > best.gain {
				thr := lo + (hi-lo)/2
				if thr >= hi {
					thr = lo
				}
				best = split{feature: f, threshold: thr, nLeft: k, gain: gain}
				found = true
			}
		}
	}
	return best, found
}

// candidates returns the features considered at one node: all of them, or a
// random subset of maxFeatures drawn from the tree's own source.
func (b *treeBuilder) candidates(nf int) []int {
	k := b.params.maxFeatures
	if k <= 0 || k >= nf {
		all := make([]int, nf)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return b.rng.Perm(nf)[:k]
}
