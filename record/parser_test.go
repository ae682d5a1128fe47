package record

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

const canonicalInput = "v_segment\tj_segment\tsequence\tcount\tfreq\tsubject\n" +
	"TRBV9*01\tTRBJ2-7*01\tCASSRTGSLADEQYF\t10\t0.5\tA5-S11\n" +
	"TRBV9*01\tTRBJ2-7*01\tCASSATGVVSAQYF\t5\t0.5\tA5-S12\n" +
	"TRBV9*01\tTRBJ2-7*01\tCASS*GVVSAQYF\t5\t0.5\tA5-S12\n" +
	"\tTRBJ2-7*01\tCASSLGQAARGIQYF\t5\t0.5\tA5-S12\n"

func TestParseCanonical(t *testing.T) {
	p, err := New("CANONICAL")
	if err != nil {
		t.Fatal(err)
	}

	rs, err := p.Parse(strings.NewReader(canonicalInput))
	if err != nil {
		t.Fatal(err)
	}

	if !rs.HasSubject {
		t.Error("Expected a subject column")
	}
	if rs.Len() != 2 {
		t.Fatalf("Got %d records, expected 2", rs.Len())
	}
	if rs.Dropped != 2 {
		t.Errorf("Got %d dropped, expected 2", rs.Dropped)
	}

	want := Record{V: "TRBV9*01", J: "TRBJ2-7*01", Sequence: "CASSRTGSLADEQYF", Count: 10, Freq: 0.5, Subject: "A5-S11"}
	if rs.Records[0] != want {
		t.Errorf("Got %+v, expected %+v", rs.Records[0], want)
	}
}

func TestParseSchemaError(t *testing.T) {
	p, err := New("CANONICAL")
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Parse(strings.NewReader("v_segment\tsequence\tcount\nTRBV9*01\tCASSF\t1\n"))

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Expected a SchemaError, got %v", err)
	}
	if strings.Join(schemaErr.Missing, ",") != "j_segment,freq" {
		t.Errorf("Got missing columns %v", schemaErr.Missing)
	}
}

func TestParseEmptyInput(t *testing.T) {
	p, _ := New("CANONICAL")

	var schemaErr *SchemaError
	if _, err := p.Parse(strings.NewReader("")); !errors.As(err, &schemaErr) {
		t.Errorf("Expected a SchemaError for an empty table, got %v", err)
	}
}

func TestParseWithoutSubject(t *testing.T) {
	p, _ := New("CANONICAL")

	rs, err := p.Parse(strings.NewReader("v_segment\tj_segment\tsequence\tcount\tfreq\nTRBV9*01\tTRBJ2-7*01\tCASSF\t3\t1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if rs.HasSubject {
		t.Error("Did not expect a subject column")
	}
	if rs.Records[0].Subject != "" {
		t.Errorf("Got subject %q", rs.Records[0].Subject)
	}
}

func TestParseBadCount(t *testing.T) {
	p, _ := New("CANONICAL")

	for _, count := range []string{"-1", "many", ""} {
		input := "v_segment\tj_segment\tsequence\tcount\tfreq\nTRBV9*01\tTRBJ2-7*01\tCASSF\t" + count + "\t0.1\n"
		if _, err := p.Parse(strings.NewReader(input)); err == nil {
			t.Errorf("Expected an error for count %q", count)
		}
	}
}

func TestParseFloatCount(t *testing.T) {
	p, _ := New("CANONICAL")

	rs, err := p.Parse(strings.NewReader("v_segment\tj_segment\tsequence\tcount\tfreq\nTRBV9*01\tTRBJ2-7*01\tCASSF\t12.0\t0.1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if rs.Records[0].Count != 12 {
		t.Errorf("Got count %d, expected 12", rs.Records[0].Count)
	}
}

func TestParseMiXCR(t *testing.T) {
	input := "cloneCount\tcloneFraction\tbestVGene\tbestJGene\taaSeqCDR3\n" +
		"100\t0.5\tTRBV9\tTRBJ2-7\tCASSRTGSLADEQYF\n" +
		"60\t0.3\tTRBV7-7\tTRBJ2-4*02\tCASSLGQAARGIQYF\n" +
		"20\t0.1\tTRBV7-7\tTRBJ2-4\tASSLGQAARGIQYF\n" +
		"20\t0.1\tTRBV7-7\tTRBJ2-4\tCASSLG_AARGIQYF\n"

	p, err := New("MIXCR")
	if err != nil {
		t.Fatal(err)
	}

	rs, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	if rs.Len() != 2 || rs.Dropped != 2 {
		t.Fatalf("Got %d records and %d dropped, expected 2 and 2", rs.Len(), rs.Dropped)
	}
	if rs.Records[0].V != "TRBV9*01" || rs.Records[0].J != "TRBJ2-7*01" {
		t.Errorf("Allele suffix not applied: %+v", rs.Records[0])
	}
	if rs.Records[1].J != "TRBJ2-4*02" {
		t.Errorf("Existing allele was overwritten: %+v", rs.Records[1])
	}
	if rs.HasSubject {
		t.Error("MiXCR tables carry no subject column")
	}
}

func TestParseVDJtoolsPerSubject(t *testing.T) {
	input := "count\tfreq\tcdr3nt\tcdr3aa\tv\td\tj\n" +
		"10\t0.25\tTGT\tCASSRTGSLADEQYF\tTRBV9\t.\tTRBJ2-7\n" +
		"30\t0.75\tTGT\tCASSATGVVSAQYF\tTRBV9,TRBV6-2\t.\tTRBJ2-7\n"

	p, _ := New("VDJTOOLS")
	rs, err := p.ParseWithSubject(strings.NewReader(input), "A5-S11.txt")
	if err != nil {
		t.Fatal(err)
	}

	if !rs.HasSubject {
		t.Error("Expected HasSubject with a fixed subject")
	}
	for _, r := range rs.Records {
		if r.Subject != "A5-S11.txt" {
			t.Errorf("Got subject %q", r.Subject)
		}
	}
	if rs.Records[1].V != "TRBV9*01,TRBV6-2*01" {
		t.Errorf("Got V %q", rs.Records[1].V)
	}
}

func TestParseDerivedFrequency(t *testing.T) {
	layout := Layout{
		Delimiter:   ',',
		ColV:        "v_gene",
		ColJ:        "j_gene",
		ColSequence: "cdr3",
		ColCount:    "count",
		ColSubject:  "donor",
	}
	input := "v_gene,j_gene,cdr3,count,donor\n" +
		"TRBV9*01,TRBJ2-7*01,CASSF,3,d1\n" +
		"TRBV9*01,TRBJ2-7*01,CASSLF,1,d1\n" +
		"TRBV9*01,TRBJ2-7*01,CASSLF,5,d2\n"

	p, err := NewWithLayout(layout)
	if err != nil {
		t.Fatal(err)
	}
	rs, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	for i, expected := range []float64{0.75, 0.25, 1} {
		if math.Abs(rs.Records[i].Freq-expected) > 1e-9 {
			t.Errorf("Record %d: got freq %f, expected %f", i, rs.Records[i].Freq, expected)
		}
	}
}

func TestParseSniffedDelimiter(t *testing.T) {
	input := "v_reps,j_reps,cdr3,count,freq,subject\n" +
		"TRBV9*01,TRBJ2-7*01,CASSRTGSLADEQYF,10,0.5,s1\n" +
		"TRBV9*01,TRBJ2-7*01,CASSATGVVSAQYF,5,0.5,s1\n"

	p, _ := New("TCRSAMPLER")
	rs, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if rs.Len() != 2 {
		t.Errorf("Got %d records, expected 2", rs.Len())
	}
}

func TestUnknownLayout(t *testing.T) {
	if _, err := New("AIRR"); err == nil {
		t.Error("Expected an error for an unknown layout")
	}
}

func TestWriteTSVRoundTrip(t *testing.T) {
	records := []Record{
		{V: "TRBV9*01", J: "TRBJ2-7*01", Sequence: "CASSRTGSLADEQYF", Count: 10, Freq: 0.5, Subject: "s1"},
		{V: "TRBV7-7*01", J: "TRBJ2-4*01", Sequence: "CASSLGQAARGIQYF", Count: 1, Freq: 0.125, Subject: "s2"},
	}

	for _, withSubject := range []bool{true, false} {
		var buf bytes.Buffer
		if err := WriteTSV(&buf, records, withSubject); err != nil {
			t.Fatal(err)
		}

		p, _ := New("CANONICAL")
		rs, err := p.Parse(&buf)
		if err != nil {
			t.Fatal(err)
		}

		if rs.HasSubject != withSubject {
			t.Errorf("withSubject=%v: HasSubject=%v", withSubject, rs.HasSubject)
		}
		for i, r := range rs.Records {
			expected := records[i]
			if !withSubject {
				expected.Subject = ""
			}
			if r != expected {
				t.Errorf("withSubject=%v: got %+v, expected %+v", withSubject, r, expected)
			}
		}
	}
}

func TestConcat(t *testing.T) {
	a := RecordSet{Records: []Record{{V: "a"}}, HasSubject: true, Dropped: 1}
	b := RecordSet{Records: []Record{{V: "b"}}, HasSubject: false, Dropped: 2}

	c := a.Concat(b)
	if c.Len() != 2 || c.Dropped != 3 || c.HasSubject {
		t.Errorf("Got %+v", c)
	}

	if d := (RecordSet{}).Concat(a); !d.HasSubject {
		t.Error("Concat onto an empty set should keep the subject column")
	}
}

func TestParseWeight(t *testing.T) {
	if w, err := ParseWeight("count"); err != nil || w != WeightCount {
		t.Errorf("Got %v, %v", w, err)
	}
	if w, err := ParseWeight(""); err != nil || w != WeightFrequency {
		t.Errorf("Got %v, %v", w, err)
	}
	if _, err := ParseWeight("mass"); err == nil {
		t.Error("Expected an error")
	}
}
