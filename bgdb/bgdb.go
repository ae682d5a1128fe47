//go:build cgo
// +build cgo

package bgdb

import (
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/tcrsampler/background"
	"github.com/carbocation/tcrsampler/record"
	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
DROP TABLE IF EXISTS background;
DROP TABLE IF EXISTS metadata;
CREATE TABLE background (
	v_segment TEXT NOT NULL,
	j_segment TEXT NOT NULL,
	rank INTEGER NOT NULL,
	sequence TEXT NOT NULL,
	count INTEGER NOT NULL,
	freq REAL NOT NULL,
	subject TEXT NOT NULL,
	PRIMARY KEY (v_segment, j_segment, rank)
);
CREATE TABLE metadata (
	weight TEXT NOT NULL,
	max_rows INTEGER NOT NULL,
	stratified INTEGER NOT NULL,
	singleton INTEGER NOT NULL,
	has_subject INTEGER NOT NULL
);
`

type row struct {
	V        string  `db:"v_segment"`
	J        string  `db:"j_segment"`
	Rank     int     `db:"rank"`
	Sequence string  `db:"sequence"`
	Count    int64   `db:"count"`
	Freq     float64 `db:"freq"`
	Subject  string  `db:"subject"`
}

// Open connects to the SQLite file at path, creating it if needed.
func Open(path string) (*sqlx.DB, error) {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return db, nil
}

// Save replaces any background in the file at path with store.
func Save(path string, store *background.Store) error {
	db, err := Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Beginx()
	if err != nil {
		return pfx.Err(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schema); err != nil {
		return pfx.Err(err)
	}

	meta := MetadataFor(store)
	if _, err := tx.NamedExec(`INSERT INTO metadata (weight, max_rows, stratified, singleton, has_subject)
		VALUES (:weight, :max_rows, :stratified, :singleton, :has_subject)`, meta); err != nil {
		return pfx.Err(err)
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO background (v_segment, j_segment, rank, sequence, count, freq, subject)
		VALUES (:v_segment, :j_segment, :rank, :sequence, :count, :freq, :subject)`)
	if err != nil {
		return pfx.Err(err)
	}
	defer stmt.Close()

	for _, pair := range store.Pairs() {
		group, _ := store.Lookup(pair)
		for rank, r := range group {
			if _, err := stmt.Exec(row{
				V:        pair.V,
				J:        pair.J,
				Rank:     rank,
				Sequence: r.Sequence,
				Count:    r.Count,
				Freq:     r.Freq,
				Subject:  r.Subject,
			}); err != nil {
				return pfx.Err(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// LoadRecords reads the stored rows back, ordered by pair and rank, along
// with the build metadata. background.Restore turns them back into the
// stored groups.
func LoadRecords(path string) (record.RecordSet, Metadata, error) {
	db, err := Open(path)
	if err != nil {
		return record.RecordSet{}, Metadata{}, err
	}
	defer db.Close()

	var meta Metadata
	if err := db.Get(&meta, "SELECT * FROM metadata LIMIT 1"); err != nil {
		return record.RecordSet{}, Metadata{}, pfx.Err(err)
	}

	rows := []row{}
	if err := db.Select(&rows, "SELECT * FROM background ORDER BY v_segment, j_segment, rank"); err != nil {
		return record.RecordSet{}, Metadata{}, pfx.Err(err)
	}

	out := record.RecordSet{
		Records:    make([]record.Record, 0, len(rows)),
		HasSubject: meta.HasSubject,
	}
	for _, r := range rows {
		out.Records = append(out.Records, record.Record{
			V:        r.V,
			J:        r.J,
			Sequence: r.Sequence,
			Count:    r.Count,
			Freq:     r.Freq,
			Subject:  r.Subject,
		})
	}

	return out, meta, nil
}
