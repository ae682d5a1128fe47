package background

import (
	"sort"

	"github.com/carbocation/tcrsampler/record"
)

// Group holds the retained rows of one (V, J) pair, highest weight first.
type Group []record.Record

// Sum returns the total of the weight column over the group.
func (g Group) Sum(w record.Weight) float64 {
	var total float64
	for _, r := range g {
		total += r.Weight(w)
	}

	return total
}

// Weights returns the weight column of the group in row order.
func (g Group) Weights(w record.Weight) []float64 {
	out := make([]float64, len(g))
	for i, r := range g {
		out[i] = r.Weight(w)
	}

	return out
}

// Store maps each gene-segment pair to its group. A Store is not modified
// after Build returns it.
type Store struct {
	groups map[record.Pair]Group

	// Weight is the column the groups were ranked by.
	Weight record.Weight

	MaxRows    int
	Stratified bool
	Singleton  bool
	HasSubject bool
}

func newStore(opts Options, hasSubject bool) *Store {
	return &Store{
		groups:     make(map[record.Pair]Group),
		Weight:     opts.Weight,
		MaxRows:    opts.MaxRows,
		Stratified: opts.StratifyBySubject,
		Singleton:  opts.MakeSingleton,
		HasSubject: hasSubject,
	}
}

// Lookup returns the group for pair, and whether the pair was seen.
func (s *Store) Lookup(pair record.Pair) (Group, bool) {
	if s == nil {
		return nil, false
	}
	g, ok := s.groups[pair]
	return g, ok
}

// Len is the number of pairs in the store.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.groups)
}

// Pairs returns every pair in the store, sorted by V then J.
func (s *Store) Pairs() []record.Pair {
	if s == nil {
		return nil
	}

	out := make([]record.Pair, 0, len(s.groups))
	for p := range s.groups {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].V != out[j].V {
			return out[i].V < out[j].V
		}
		return out[i].J < out[j].J
	})

	return out
}

// Records flattens the store into its retained rows, pair by pair in Pairs
// order and in rank order within each pair. Rows registered under several
// pairs by ambiguous-call splitting are written once per pair, with the
// pair's own V and J.
func (s *Store) Records() []record.Record {
	out := make([]record.Record, 0)
	for _, p := range s.Pairs() {
		for _, r := range s.groups[p] {
			r.V, r.J = p.V, p.J
			out = append(out, r)
		}
	}

	return out
}

// Sizes returns the number of retained rows per pair, in Pairs order.
func (s *Store) Sizes() []int {
	pairs := s.Pairs()
	out := make([]int, len(pairs))
	for i, p := range pairs {
		out[i] = len(s.groups[p])
	}

	return out
}
