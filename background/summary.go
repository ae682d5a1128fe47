package background

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the shape of a built background.
type Summary struct {
	Pairs int
	Rows  int

	MeanGroupSize   float64
	MedianGroupSize float64
	MaxGroupSize    int

	// Groups that hit the row cap. In a stratified store this counts groups
	// holding at least MaxRows rows.
	CappedGroups int

	OccurrenceDepth int

	// Shannon entropy, in bits, of each frequency table.
	EntropyPair           float64
	EntropyV              float64
	EntropyJ              float64
	EntropyOccurrencePair float64
	EntropyOccurrenceV    float64
	EntropyOccurrenceJ    float64
}

func Summarize(store *Store, tables *Tables) (Summary, error) {
	out := Summary{}

	if store.Len() > 0 {
		sizes := store.Sizes()
		data := stats.LoadRawData(sizes)

		out.Pairs = len(sizes)
		for _, n := range sizes {
			out.Rows += n
			if n > out.MaxGroupSize {
				out.MaxGroupSize = n
			}
			if n >= store.MaxRows {
				out.CappedGroups++
			}
		}

		var err error
		if out.MeanGroupSize, err = stats.Mean(data); err != nil {
			return out, err
		}
		if out.MedianGroupSize, err = stats.Median(data); err != nil {
			return out, err
		}
	}

	if tables != nil {
		out.OccurrenceDepth = tables.OccurrenceDepth
		out.EntropyPair = entropyBits(pairValues(tables.Pair))
		out.EntropyV = entropyBits(geneValues(tables.V))
		out.EntropyJ = entropyBits(geneValues(tables.J))
		out.EntropyOccurrencePair = entropyBits(pairValues(tables.OccurrencePair))
		out.EntropyOccurrenceV = entropyBits(geneValues(tables.OccurrenceV))
		out.EntropyOccurrenceJ = entropyBits(geneValues(tables.OccurrenceJ))
	}

	return out, nil
}

func entropyBits(p []float64) float64 {
	if len(p) == 0 {
		return 0
	}
	return stat.Entropy(p) / math.Ln2
}

func pairValues(t PairTable) []float64 {
	out := make([]float64, 0, len(t))
	for _, k := range t.Keys() {
		out = append(out, t[k])
	}
	return out
}

func geneValues(t Table) []float64 {
	out := make([]float64, 0, len(t))
	for _, k := range t.Keys() {
		out = append(out, t[k])
	}
	return out
}
