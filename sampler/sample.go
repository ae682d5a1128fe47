package sampler

import (
	"errors"
	"fmt"
	"math"

	"github.com/carbocation/tcrsampler/record"
	"github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"
)

// DefaultMaxDraws bounds n*depth for a single pair when
// SampleOptions.MaxDraws is unset.
const DefaultMaxDraws = 1 << 24

var ErrTooManyDraws = errors.New("too many draws requested")

// SampleOptions control a draw. Use DefaultSampleOptions for the usual
// depth 1, seed 1, frequency-weighted draw.
type SampleOptions struct {
	// Depth multiplies the requested count. Values below 1 mean 1.
	Depth int

	// Seed reseeds the generator at the start of every SampleBackground
	// call.
	Seed int64

	Weight record.Weight

	// MaxDraws caps n*Depth per pair. 0 means DefaultMaxDraws.
	MaxDraws int
}

// Draws returns the number of sequences a request for n will draw, or
// ErrTooManyDraws if n*Depth overflows or exceeds MaxDraws.
func (o SampleOptions) Draws(n int) (int, error) {
	depth := o.Depth
	if depth < 1 {
		depth = 1
	}
	if n <= 0 {
		return 0, nil
	}

	limit := o.MaxDraws
	if limit <= 0 {
		limit = DefaultMaxDraws
	}

	if n > math.MaxInt/depth || n*depth > limit {
		return 0, fmt.Errorf("%w: n=%d depth=%d exceeds the limit of %d", ErrTooManyDraws, n, depth, limit)
	}

	return n * depth, nil
}

func DefaultSampleOptions() SampleOptions {
	return SampleOptions{
		Depth:  1,
		Seed:   1,
		Weight: record.WeightFrequency,
	}
}

// Request asks for N sequences of one pair.
type Request struct {
	V string
	J string
	N int
}

func (r Request) Pair() record.Pair {
	return record.Pair{V: r.V, J: r.J}
}

// SampleBackground draws n*depth sequences of pair (v, j) with replacement,
// weighted by opts.Weight. An unseen pair is logged as a warning and yields
// a single absent (invalid) element. A request beyond opts.MaxDraws is
// logged and yields no elements.
func (s *Sampler) SampleBackground(v, j string, n int, opts SampleOptions) []null.String {
	k, err := opts.Draws(n)
	if err != nil {
		s.log.WithFields(logrus.Fields{"v": v, "j": j, "n": n, "depth": opts.Depth}).Warn(err)
		return []null.String{}
	}

	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	group, ok := store.Lookup(record.Pair{V: v, J: j})
	if !ok || len(group) == 0 {
		s.log.WithFields(logrus.Fields{"v": v, "j": j}).Warnf("(%s,%s) was not recognized in the background", v, j)
		return []null.String{{}}
	}

	picks := weightedDraw(group.Weights(opts.Weight), k, opts.Seed)

	out := make([]null.String, len(picks))
	for i, k := range picks {
		out[i] = null.StringFrom(group[k].Sequence)
	}

	return out
}

// Sample runs SampleBackground for every request with the same options,
// including the same seed, and returns the draws in request order.
func (s *Sampler) Sample(reqs []Request, opts SampleOptions) [][]null.String {
	out := make([][]null.String, len(reqs))
	for i, req := range reqs {
		out[i] = s.SampleBackground(req.V, req.J, req.N, opts)
	}

	return out
}

// SampleFlat is Sample with the per-request draws concatenated.
func (s *Sampler) SampleFlat(reqs []Request, opts SampleOptions) []null.String {
	return Flatten(s.Sample(reqs, opts))
}

func Flatten(draws [][]null.String) []null.String {
	n := 0
	for _, d := range draws {
		n += len(d)
	}

	out := make([]null.String, 0, n)
	for _, d := range draws {
		out = append(out, d...)
	}

	return out
}

// Misses counts absent elements.
func Misses(draws []null.String) int {
	n := 0
	for _, d := range draws {
		if !d.Valid {
			n++
		}
	}

	return n
}
