// Package genedb holds the germline gene names known for an organism. It is
// used only to warn about unfamiliar gene calls in a background; it never
// rejects records.
package genedb

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/carbocation/tcrsampler/record"
	"github.com/gocarina/gocsv"
)

var Organisms = []string{"human", "mouse"}

// InvalidOrganismError is returned for any organism outside Organisms.
type InvalidOrganismError struct {
	Organism string
}

func (e *InvalidOrganismError) Error() string {
	return fmt.Sprintf("organism %q is not supported; choose one of %s", e.Organism, strings.Join(Organisms, ", "))
}

func ValidateOrganism(organism string) error {
	for _, o := range Organisms {
		if o == organism {
			return nil
		}
	}

	return &InvalidOrganismError{Organism: organism}
}

// Gene is one row of the gene table. Only id and organism are required;
// the remaining columns of alphabeta_db.tsv are ignored.
type Gene struct {
	ID       string `csv:"id"`
	Organism string `csv:"organism"`
	Chain    string `csv:"chain"`
	Region   string `csv:"region"`
}

type DB struct {
	Organism string
	genes    map[string]Gene
}

// Load reads a tab-delimited gene table and keeps the rows for organism.
func Load(r io.Reader, organism string) (*DB, error) {
	if err := ValidateOrganism(organism); err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	genes := []*Gene{}
	if err := gocsv.UnmarshalCSV(cr, &genes); err != nil {
		return nil, err
	}

	db := &DB{
		Organism: organism,
		genes:    make(map[string]Gene),
	}
	for _, g := range genes {
		if g.ID == "" {
			return nil, fmt.Errorf("gene table has a row without an id; is the id column present?")
		}
		if g.Organism == organism {
			db.genes[g.ID] = *g
		}
	}

	return db, nil
}

// New builds a DB directly from gene names.
func New(organism string, ids ...string) (*DB, error) {
	if err := ValidateOrganism(organism); err != nil {
		return nil, err
	}

	db := &DB{
		Organism: organism,
		genes:    make(map[string]Gene, len(ids)),
	}
	for _, id := range ids {
		db.genes[id] = Gene{ID: id, Organism: organism}
	}

	return db, nil
}

func (db *DB) Len() int {
	return len(db.genes)
}

func (db *DB) Known(gene string) bool {
	_, ok := db.genes[gene]
	return ok
}

func (db *DB) Gene(id string) (Gene, bool) {
	g, ok := db.genes[id]
	return g, ok
}

// Unknown returns, sorted and deduplicated, every V or J name in pairs that
// the DB does not recognize.
func (db *DB) Unknown(pairs []record.Pair) []string {
	seen := make(map[string]struct{})
	for _, p := range pairs {
		for _, gene := range []string{p.V, p.J} {
			if !db.Known(gene) {
				seen[gene] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for gene := range seen {
		out = append(out, gene)
	}
	sort.Strings(out)

	return out
}
