package record

import (
	"sort"
	"strings"
)

// Layout maps the columns of an upstream table onto the canonical schema.
// Column names are matched exactly against the header row.
type Layout struct {
	// Delimiter of 0 means the delimiter is sniffed from the data.
	Delimiter rune
	Comment   rune

	ColV        string
	ColJ        string
	ColSequence string

	// ColCount may be empty when the source has no abundance column; every
	// row then counts once.
	ColCount string

	// ColFreq may be empty; frequencies are then derived from Count within
	// each subject.
	ColFreq string

	// ColSubject is optional in the source even when set here.
	ColSubject string

	// AlleleSuffix is appended to gene calls that carry no allele (no '*').
	AlleleSuffix string

	// RequireCDR3Motif drops sequences that do not start with C and end with
	// F.
	RequireCDR3Motif bool
}

var Layouts = map[string]Layout{
	// The persisted background artifact.
	"CANONICAL": {
		Delimiter:   '\t',
		Comment:     '#',
		ColV:        "v_segment",
		ColJ:        "j_segment",
		ColSequence: "sequence",
		ColCount:    "count",
		ColFreq:     "freq",
		ColSubject:  "subject",
	},
	// Reference files distributed with earlier releases.
	"TCRSAMPLER": {
		ColV:        "v_reps",
		ColJ:        "j_reps",
		ColSequence: "cdr3",
		ColCount:    "count",
		ColFreq:     "freq",
		ColSubject:  "subject",
	},
	"VDJTOOLS": {
		Delimiter:    '\t',
		ColV:         "v",
		ColJ:         "j",
		ColSequence:  "cdr3aa",
		ColCount:     "count",
		ColFreq:      "freq",
		ColSubject:   "subject",
		AlleleSuffix: "*01",
	},
	"MIXCR": {
		Delimiter:        '\t',
		ColV:             "bestVGene",
		ColJ:             "bestJGene",
		ColSequence:      "aaSeqCDR3",
		ColCount:         "cloneCount",
		ColFreq:          "cloneFraction",
		AlleleSuffix:     "*01",
		RequireCDR3Motif: true,
	},
}

// LayoutNames lists the built-in layouts, sorted.
func LayoutNames() string {
	names := make([]string, 0, len(Layouts))
	for m := range Layouts {
		names = append(names, m)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}

func (l Layout) required() []string {
	out := []string{l.ColV, l.ColJ, l.ColSequence}
	if l.ColCount != "" {
		out = append(out, l.ColCount)
	}
	if l.ColFreq != "" {
		out = append(out, l.ColFreq)
	}

	return out
}

// normalizeGene trims whitespace and appends the allele suffix to every
// comma-separated call that lacks one.
func (l Layout) normalizeGene(gene string) string {
	gene = strings.TrimSpace(gene)
	if l.AlleleSuffix == "" || gene == "" {
		return gene
	}

	parts := strings.Split(gene, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" && !strings.Contains(p, "*") {
			p += l.AlleleSuffix
		}
		parts[i] = p
	}

	return strings.Join(parts, ",")
}
