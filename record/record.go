// Package record defines the canonical receptor-sequence row that every
// background is built from, and the parsers that produce it from upstream
// tables.
package record

import "fmt"

// Pair is the (V, J) gene-segment combination that identifies a background
// group.
type Pair struct {
	V string
	J string
}

func (p Pair) String() string {
	return fmt.Sprintf("(%s,%s)", p.V, p.J)
}

// Record is one canonical row. Count is the clone abundance; Freq is its
// relative abundance within the source sample. Subject is empty when the
// source has no donor/sample column.
type Record struct {
	V        string
	J        string
	Sequence string
	Count    int64
	Freq     float64
	Subject  string
}

func (r Record) Pair() Pair {
	return Pair{V: r.V, J: r.J}
}

// Weight returns the column selected by w.
func (r Record) Weight(w Weight) float64 {
	if w == WeightCount {
		return float64(r.Count)
	}

	return r.Freq
}

// RecordSet is the output of a parser. HasSubject records whether the source
// carried a subject column at all, which subject stratification requires.
type RecordSet struct {
	Records    []Record
	HasSubject bool

	// Dropped counts rows excluded for an invalid sequence or a missing
	// gene call.
	Dropped int
}

func (rs RecordSet) Len() int {
	return len(rs.Records)
}

// Concat appends other to rs. The result has a subject column only if both
// inputs do.
func (rs RecordSet) Concat(other RecordSet) RecordSet {
	out := RecordSet{
		Records:    make([]Record, 0, len(rs.Records)+len(other.Records)),
		HasSubject: rs.HasSubject && other.HasSubject,
		Dropped:    rs.Dropped + other.Dropped,
	}
	if len(rs.Records) == 0 {
		out.HasSubject = other.HasSubject
	} else if len(other.Records) == 0 {
		out.HasSubject = rs.HasSubject
	}
	out.Records = append(out.Records, rs.Records...)
	out.Records = append(out.Records, other.Records...)

	return out
}

// Weight selects the column used to rank rows within a group and to weight
// draws from it.
type Weight int

const (
	// WeightFrequency ranks and weights by Freq. It is the zero value.
	WeightFrequency Weight = iota
	// WeightCount ranks and weights by Count.
	WeightCount
)

func (w Weight) String() string {
	if w == WeightCount {
		return "count"
	}

	return "freq"
}

// ParseWeight maps "freq"/"frequency" and "count" to a Weight.
func ParseWeight(s string) (Weight, error) {
	switch s {
	case "", "freq", "frequency":
		return WeightFrequency, nil
	case "count":
		return WeightCount, nil
	}

	return WeightFrequency, fmt.Errorf("weight %q is not one of freq, count", s)
}
