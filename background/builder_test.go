package background

import (
	"errors"
	"fmt"
	"testing"

	"github.com/carbocation/tcrsampler/record"
)

const aminoAcids = "ACDEFGHIKLMNPQRSTVWY"

var (
	pairA = record.Pair{V: "TRBV9*01", J: "TRBJ2-7*01"}
	pairB = record.Pair{V: "TRBV7-7*01", J: "TRBJ2-4*01"}
)

// syntheticRecords makes n rows of pair per subject, with descending freq and
// count so that row 0 ranks first.
func syntheticRecords(pair record.Pair, subjects []string, n int) []record.Record {
	out := make([]record.Record, 0)
	for _, s := range subjects {
		for i := 0; i < n; i++ {
			out = append(out, record.Record{
				V:        pair.V,
				J:        pair.J,
				Sequence: fmt.Sprintf("CASS%cF", aminoAcids[i%len(aminoAcids)]),
				Count:    int64(n - i),
				Freq:     float64(n-i) / float64(n*10),
				Subject:  s,
			})
		}
	}
	return out
}

func TestBuildCapsGroups(t *testing.T) {
	records := append(syntheticRecords(pairA, []string{"s1"}, 30), syntheticRecords(pairB, []string{"s1"}, 5)...)

	for _, maxRows := range []int{1, 10, 100} {
		store, _, err := Build(record.RecordSet{Records: records, HasSubject: true}, Options{MaxRows: maxRows})
		if err != nil {
			t.Fatal(err)
		}

		for _, pair := range store.Pairs() {
			g, _ := store.Lookup(pair)
			if len(g) > maxRows {
				t.Errorf("max %d: group %s has %d rows", maxRows, pair, len(g))
			}
		}

		g, _ := store.Lookup(pairB)
		if expected := min(5, maxRows); len(g) != expected {
			t.Errorf("max %d: got %d rows for %s, expected %d", maxRows, len(g), pairB, expected)
		}
	}
}

func TestBuildDefaultMaxRows(t *testing.T) {
	store, _, err := Build(record.RecordSet{Records: syntheticRecords(pairA, []string{"s1"}, 150)}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if g, _ := store.Lookup(pairA); len(g) != DefaultMaxRows {
		t.Errorf("Got %d rows, expected %d", len(g), DefaultMaxRows)
	}
	if store.MaxRows != DefaultMaxRows {
		t.Errorf("Store records MaxRows %d", store.MaxRows)
	}
}

func TestBuildNegativeMaxRows(t *testing.T) {
	if _, _, err := Build(record.RecordSet{}, Options{MaxRows: -1}); err == nil {
		t.Error("Expected an error for a negative cap")
	}
}

func TestBuildRanksDescending(t *testing.T) {
	records := []record.Record{
		{V: pairA.V, J: pairA.J, Sequence: "CASSAF", Count: 1, Freq: 0.3},
		{V: pairA.V, J: pairA.J, Sequence: "CASSBF", Count: 9, Freq: 0.1},
		{V: pairA.V, J: pairA.J, Sequence: "CASSCF", Count: 5, Freq: 0.6},
	}
	rs := record.RecordSet{Records: records}

	for _, v := range []struct {
		weight   record.Weight
		expected []string
	}{
		{record.WeightFrequency, []string{"CASSCF", "CASSAF", "CASSBF"}},
		{record.WeightCount, []string{"CASSBF", "CASSCF", "CASSAF"}},
	} {
		store, _, err := Build(rs, Options{MaxRows: 10, Weight: v.weight})
		if err != nil {
			t.Fatal(err)
		}
		g, _ := store.Lookup(pairA)
		for i, seq := range v.expected {
			if g[i].Sequence != seq {
				t.Errorf("%s: row %d is %s, expected %s", v.weight, i, g[i].Sequence, seq)
			}
		}
		if store.Weight != v.weight {
			t.Errorf("Store weight %s, expected %s", store.Weight, v.weight)
		}
	}
}

func TestBuildTiesKeepInputOrder(t *testing.T) {
	records := []record.Record{
		{V: pairA.V, J: pairA.J, Sequence: "CASSAF", Freq: 0.5},
		{V: pairA.V, J: pairA.J, Sequence: "CASSBF", Freq: 0.5},
		{V: pairA.V, J: pairA.J, Sequence: "CASSCF", Freq: 0.5},
	}
	store, _, err := Build(record.RecordSet{Records: records}, Options{MaxRows: 2})
	if err != nil {
		t.Fatal(err)
	}

	g, _ := store.Lookup(pairA)
	if len(g) != 2 || g[0].Sequence != "CASSAF" || g[1].Sequence != "CASSBF" {
		t.Errorf("Got %+v", g)
	}
}

func TestBuildStratified(t *testing.T) {
	subjects := []string{"s1", "s2", "s3"}
	records := syntheticRecords(pairA, subjects, 8)

	store, _, err := Build(record.RecordSet{Records: records, HasSubject: true}, Options{MaxRows: 3, StratifyBySubject: true})
	if err != nil {
		t.Fatal(err)
	}

	g, _ := store.Lookup(pairA)
	if len(g) != 9 {
		t.Fatalf("Got %d rows, expected 3 per subject", len(g))
	}

	perSubject := make(map[string]int)
	for i, r := range g {
		perSubject[r.Subject]++
		if expected := subjects[i/3]; r.Subject != expected {
			t.Errorf("Row %d from %s, expected subjects concatenated in order (%s)", i, r.Subject, expected)
		}
	}
	for _, s := range subjects {
		if perSubject[s] > 3 {
			t.Errorf("Subject %s has %d rows", s, perSubject[s])
		}
	}
}

func TestBuildStratifiedWithoutSubject(t *testing.T) {
	_, _, err := Build(record.RecordSet{Records: syntheticRecords(pairA, []string{""}, 3)}, Options{StratifyBySubject: true})

	var fieldErr *MissingFieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("Expected MissingFieldError, got %v", err)
	}
	if fieldErr.Field != "subject" {
		t.Errorf("Got field %q", fieldErr.Field)
	}
}

func TestBuildSingleton(t *testing.T) {
	records := syntheticRecords(pairA, []string{"s1", "s2"}, 20)
	rs := record.RecordSet{Records: records, HasSubject: true}

	store, _, err := Build(rs, Options{MaxRows: 5, StratifyBySubject: true, MakeSingleton: true})
	if err != nil {
		t.Fatal(err)
	}

	g, _ := store.Lookup(pairA)
	if len(g) != 10 {
		t.Fatalf("Got %d rows", len(g))
	}
	for _, r := range g {
		if r.Count != 1 || r.Freq != 1 {
			t.Errorf("Row not flattened: %+v", r)
		}
	}

	// Ranking happens before the override, so the top rows are retained.
	if g[0].Sequence != records[0].Sequence {
		t.Errorf("Got %s first, expected %s", g[0].Sequence, records[0].Sequence)
	}

	// The input is not modified.
	if records[0].Count == 1 {
		t.Error("Build modified the input records")
	}
}

func TestBuildEmpty(t *testing.T) {
	store, tables, err := Build(record.RecordSet{}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if store.Len() != 0 {
		t.Errorf("Got %d groups", store.Len())
	}
	for name, n := range map[string]int{
		"pair": len(tables.Pair), "v": len(tables.V), "j": len(tables.J),
		"occ pair": len(tables.OccurrencePair), "occ v": len(tables.OccurrenceV), "occ j": len(tables.OccurrenceJ),
	} {
		if n != 0 {
			t.Errorf("Table %s has %d entries", name, n)
		}
	}
}

func TestBuildSplitAmbiguous(t *testing.T) {
	records := []record.Record{
		{V: "TRBV6-3*01,TRBV6-2*01", J: "TRBJ2-7*01", Sequence: "CASSAF", Count: 2, Freq: 0.4},
		{V: "TRBV6-2*01", J: "TRBJ2-7*01", Sequence: "CASSBF", Count: 3, Freq: 0.6},
	}
	rs := record.RecordSet{Records: records}

	store, tables, err := Build(rs, Options{SplitAmbiguous: true})
	if err != nil {
		t.Fatal(err)
	}

	if store.Len() != 2 {
		t.Fatalf("Got pairs %v", store.Pairs())
	}

	g, ok := store.Lookup(record.Pair{V: "TRBV6-2*01", J: "TRBJ2-7*01"})
	if !ok || len(g) != 2 {
		t.Fatalf("Got %+v", g)
	}
	if g[0].Sequence != "CASSBF" || g[1].V != "TRBV6-2*01" {
		t.Errorf("Got %+v", g)
	}

	if g, ok := store.Lookup(record.Pair{V: "TRBV6-3*01", J: "TRBJ2-7*01"}); !ok || len(g) != 1 {
		t.Errorf("Got %+v", g)
	}

	// The ambiguous row splits its 0.4 evenly.
	if got := tables.V["TRBV6-2*01"]; !near(got, 0.8) {
		t.Errorf("Got V freq %f, expected 0.8", got)
	}
	if got := tables.Pair[record.Pair{V: "TRBV6-3*01", J: "TRBJ2-7*01"}]; !near(got, 0.2) {
		t.Errorf("Got pair freq %f, expected 0.2", got)
	}

	// Without splitting, the ambiguous call is its own pair.
	store, _, err = Build(rs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Lookup(record.Pair{V: "TRBV6-3*01,TRBV6-2*01", J: "TRBJ2-7*01"}); !ok {
		t.Error("Expected the unsplit pair")
	}
}

func TestBuildProgress(t *testing.T) {
	bar := newTestBar()
	records := append(syntheticRecords(pairA, []string{"s1"}, 3), syntheticRecords(pairB, []string{"s1"}, 3)...)

	if _, _, err := Build(record.RecordSet{Records: records}, Options{Progress: bar}); err != nil {
		t.Fatal(err)
	}
	if bar.Current() != 2 || bar.Total() != 2 {
		t.Errorf("Progress %d/%d, expected 2/2", bar.Current(), bar.Total())
	}
}

func TestStoreRecords(t *testing.T) {
	records := append(syntheticRecords(pairA, []string{"s1"}, 3), syntheticRecords(pairB, []string{"s1"}, 2)...)
	store, _, err := Build(record.RecordSet{Records: records}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	out := store.Records()
	if len(out) != 5 {
		t.Fatalf("Got %d rows", len(out))
	}
	// pairB (TRBV7-7) sorts before pairA (TRBV9).
	if out[0].Pair() != pairB || out[2].Pair() != pairA {
		t.Errorf("Rows not in pair order: %+v", out)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
