package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/tcrsampler"
)

// SchemaError reports required columns that are absent from a table's
// header. No records are returned alongside it.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Missing, ", "))
}

type Parser struct {
	Layout Layout
}

// New returns a parser for one of the built-in Layouts.
func New(layout string) (*Parser, error) {
	l, exists := Layouts[layout]
	if !exists {
		return nil, fmt.Errorf("Layout %s is not found. Valid layout names include: %s", layout, LayoutNames())
	}

	return NewWithLayout(l)
}

func NewWithLayout(layout Layout) (*Parser, error) {
	if layout.ColV == "" || layout.ColJ == "" || layout.ColSequence == "" {
		return nil, fmt.Errorf("a layout must name its V, J and sequence columns")
	}

	return &Parser{Layout: layout}, nil
}

// Parse reads a headed table from r.
func (p *Parser) Parse(r io.Reader) (RecordSet, error) {
	return p.parse(r, "")
}

// ParseWithSubject reads a headed table from r and assigns subject to every
// row, overriding any subject column. This suits one-file-per-donor corpora.
func (p *Parser) ParseWithSubject(r io.Reader, subject string) (RecordSet, error) {
	if subject == "" {
		return RecordSet{}, fmt.Errorf("ParseWithSubject requires a non-empty subject")
	}

	return p.parse(r, subject)
}

func (p *Parser) parse(r io.Reader, fixedSubject string) (RecordSet, error) {
	delim := p.Layout.Delimiter
	if delim == 0 {
		var err error
		delim, r, err = tcrsampler.PeekDelimiter(r)
		if err != nil {
			return RecordSet{}, err
		}
	}

	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.Comment = p.Layout.Comment
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	headRow, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return RecordSet{}, &SchemaError{Missing: p.Layout.required()}
	} else if err != nil {
		return RecordSet{}, fmt.Errorf("header: %w", err)
	}

	header := make(map[string]int, len(headRow))
	for i, name := range headRow {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := header[name]; !dup {
			header[name] = i
		}
	}

	var missing []string
	for _, col := range p.Layout.required() {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return RecordSet{}, &SchemaError{Missing: missing}
	}

	colSubject, hasSubject := -1, false
	if p.Layout.ColSubject != "" {
		colSubject, hasSubject = header[p.Layout.ColSubject]
		if !hasSubject {
			colSubject = -1
		}
	}

	out := RecordSet{
		Records:    make([]Record, 0),
		HasSubject: hasSubject || fixedSubject != "",
	}

	col := func(row []string, name string) string {
		idx := header[name]
		if idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return RecordSet{}, err
		}
		line, _ := cr.FieldPos(0)

		rec := Record{
			V:        p.Layout.normalizeGene(col(row, p.Layout.ColV)),
			J:        p.Layout.normalizeGene(col(row, p.Layout.ColJ)),
			Sequence: strings.TrimSpace(col(row, p.Layout.ColSequence)),
			Count:    1,
		}

		if rec.V == "" || rec.J == "" || !ValidSequence(rec.Sequence) ||
			(p.Layout.RequireCDR3Motif && !ValidCDR3Motif(rec.Sequence)) {
			out.Dropped++
			continue
		}

		if p.Layout.ColCount != "" {
			if rec.Count, err = parseCount(col(row, p.Layout.ColCount)); err != nil {
				return RecordSet{}, fmt.Errorf("line %d: %s: %w", line, p.Layout.ColCount, err)
			}
		}

		if p.Layout.ColFreq != "" {
			if rec.Freq, err = parseFreq(col(row, p.Layout.ColFreq)); err != nil {
				return RecordSet{}, fmt.Errorf("line %d: %s: %w", line, p.Layout.ColFreq, err)
			}
		}

		switch {
		case fixedSubject != "":
			rec.Subject = fixedSubject
		case colSubject >= 0 && colSubject < len(row):
			rec.Subject = strings.TrimSpace(row[colSubject])
		}

		out.Records = append(out.Records, rec)
	}

	if p.Layout.ColFreq == "" {
		deriveFrequencies(out.Records)
	}

	return out, nil
}

func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative count %d", n)
		}
		return n, nil
	}

	// Some aligners report clone counts as floats ("12.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid count %q", s)
	}

	return int64(math.Round(f)), nil
}

func parseFreq(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid frequency %q", s)
	}

	return f, nil
}

// deriveFrequencies sets Freq to Count divided by the total count of the
// record's subject.
func deriveFrequencies(records []Record) {
	totals := make(map[string]int64)
	for _, r := range records {
		totals[r.Subject] += r.Count
	}
	for i := range records {
		if total := totals[records[i].Subject]; total > 0 {
			records[i].Freq = float64(records[i].Count) / float64(total)
		}
	}
}
