package sampler

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// weightedDraw returns k indices drawn with replacement from the categorical
// distribution proportional to weights, using a generator freshly seeded with
// seed. The same weights and seed always give the same indices.
//
// Each draw takes u = Float64() * total from math/rand's default source and
// picks the first index whose cumulative weight exceeds u (a bisect-right
// search). Weights need not sum to one. If they sum to zero the draw is
// uniform.
func weightedDraw(weights []float64, k int, seed int64) []int {
	if len(weights) == 0 || k <= 0 {
		return []int{}
	}

	r := rand.New(rand.NewSource(seed))
	out := make([]int, k)

	cum := floats.CumSum(make([]float64, len(weights)), weights)
	total := cum[len(cum)-1]

	if total <= 0 {
		for i := range out {
			out[i] = int(r.Float64() * float64(len(weights)))
		}
		return out
	}

	last := len(cum) - 1
	for i := range out {
		u := r.Float64() * total
		idx := sort.Search(len(cum), func(x int) bool { return cum[x] > u })
		if idx > last {
			// Only reachable through rounding at the top of the range.
			idx = last
		}
		out[i] = idx
	}

	return out
}
