package background

import (
	"encoding/csv"
	"io"
	"sort"

	"github.com/carbocation/tcrsampler/record"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
)

// Table maps a single gene segment to its share of the total.
type Table map[string]float64

// PairTable maps a gene-segment pair to its share of the total.
type PairTable map[record.Pair]float64

func (t Table) Sum() float64 {
	vals := make([]float64, 0, len(t))
	for _, v := range t {
		vals = append(vals, v)
	}
	return floats.Sum(vals)
}

func (t PairTable) Sum() float64 {
	vals := make([]float64, 0, len(t))
	for _, v := range t {
		vals = append(vals, v)
	}
	return floats.Sum(vals)
}

// Keys returns the table's genes sorted by name.
func (t Table) Keys() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

// Keys returns the table's pairs sorted by V then J.
func (t PairTable) Keys() []record.Pair {
	out := make([]record.Pair, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].V != out[j].V {
			return out[i].V < out[j].V
		}
		return out[i].J < out[j].J
	})

	return out
}

// Tables holds gene-usage frequencies under both estimators.
//
// The sequence-frequency tables (Pair, V, J) sum the freq column, so an
// expanded clone counts in proportion to its abundance. The occurrence tables
// count unique clones instead, after cutting every subject down to the depth
// of the shallowest one.
type Tables struct {
	Pair PairTable
	V    Table
	J    Table

	OccurrencePair PairTable
	OccurrenceV    Table
	OccurrenceJ    Table

	// OccurrenceDepth is the number of clones taken from each subject.
	OccurrenceDepth int
}

func newTables() *Tables {
	return &Tables{
		Pair:           make(PairTable),
		V:              make(Table),
		J:              make(Table),
		OccurrencePair: make(PairTable),
		OccurrenceV:    make(Table),
		OccurrenceJ:    make(Table),
	}
}

func computeTables(records []record.Record, split bool) *Tables {
	t := newTables()
	if len(records) == 0 {
		return t
	}

	for _, r := range records {
		tally(t.Pair, t.V, t.J, r, r.Freq, split)
	}

	kept, depth := occurrenceSample(records)
	t.OccurrenceDepth = depth
	for _, k := range kept {
		tally(t.OccurrencePair, t.OccurrenceV, t.OccurrenceJ, records[k], 1, split)
	}

	t.Pair.normalize()
	t.V.normalize()
	t.J.normalize()
	t.OccurrencePair.normalize()
	t.OccurrenceV.normalize()
	t.OccurrenceJ.normalize()

	return t
}

// tally adds mass for r to the paired and marginal tables. With split set, an
// ambiguous call spreads its mass evenly over its candidates so the totals
// are unchanged.
func tally(pairs PairTable, vs, js Table, r record.Record, mass float64, split bool) {
	if !split {
		pairs[r.Pair()] += mass
		vs[r.V] += mass
		js[r.J] += mass
		return
	}

	expanded := expandPair(r, true)
	for _, p := range expanded {
		pairs[p] += mass / float64(len(expanded))
	}

	vCalls, jCalls := splitCalls(r.V), splitCalls(r.J)
	for _, v := range vCalls {
		vs[v] += mass / float64(len(vCalls))
	}
	for _, j := range jCalls {
		js[j] += mass / float64(len(jCalls))
	}
}

type clone struct {
	subject  string
	pair     record.Pair
	sequence string
}

// occurrenceSample returns the indices of each subject's top N records by
// freq, where N is the number of distinct (V, J, sequence) records held by
// the least-deep subject. Ties are broken by subject, then by input order.
// Records without a subject form one subject together.
func occurrenceSample(records []record.Record) ([]int, int) {
	seen := make(map[clone]struct{}, len(records))
	perSubject := make(map[string]int)
	for _, r := range records {
		c := clone{subject: r.Subject, pair: r.Pair(), sequence: r.Sequence}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		perSubject[r.Subject]++
	}

	depth := -1
	for _, n := range perSubject {
		if depth < 0 || n < depth {
			depth = n
		}
	}

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := records[order[a]], records[order[b]]
		if ra.Freq != rb.Freq {
			return ra.Freq > rb.Freq
		}
		return ra.Subject < rb.Subject
	})

	taken := make(map[string]int, len(perSubject))
	kept := make([]int, 0, depth*len(perSubject))
	for _, k := range order {
		s := records[k].Subject
		if taken[s] < depth {
			taken[s]++
			kept = append(kept, k)
		}
	}

	return kept, depth
}

// normalize divides every value by the table total. A table with zero total
// mass is left as is.
func (t Table) normalize() {
	total := t.Sum()
	if total == 0 {
		return
	}
	for k, v := range t {
		t[k] = v / total
	}
}

func (t PairTable) normalize() {
	total := t.Sum()
	if total == 0 {
		return
	}
	for k, v := range t {
		t[k] = v / total
	}
}

type tableRow struct {
	Method string  `csv:"method"`
	Table  string  `csv:"table"`
	V      string  `csv:"v_segment"`
	J      string  `csv:"j_segment"`
	Value  float64 `csv:"value"`
}

// WriteTSV writes all six tables in long format: method (freq or
// occurrence), table (pair, v or j), v_segment, j_segment, value. Marginal
// rows leave the other segment empty.
func (t *Tables) WriteTSV(w io.Writer) error {
	rows := make([]*tableRow, 0)

	addPairs := func(method string, pt PairTable) {
		for _, k := range pt.Keys() {
			rows = append(rows, &tableRow{method, "pair", k.V, k.J, pt[k]})
		}
	}
	addGenes := func(method, table string, gt Table) {
		for _, k := range gt.Keys() {
			row := &tableRow{Method: method, Table: table, Value: gt[k]}
			if table == "v" {
				row.V = k
			} else {
				row.J = k
			}
			rows = append(rows, row)
		}
	}

	addPairs("freq", t.Pair)
	addGenes("freq", "v", t.V)
	addGenes("freq", "j", t.J)
	addPairs("occurrence", t.OccurrencePair)
	addGenes("occurrence", "v", t.OccurrenceV)
	addGenes("occurrence", "j", t.OccurrenceJ)

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	out := gocsv.NewSafeCSVWriter(cw)
	if err := gocsv.MarshalCSV(&rows, out); err != nil {
		return err
	}
	out.Flush()

	return out.Error()
}
