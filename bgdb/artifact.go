// Package bgdb persists a built background, either as a TSV artifact or in a
// SQLite file when many sessions sample from the same background, and reads
// it back with its groups exactly as they were built.
package bgdb

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/tcrsampler"
	"github.com/carbocation/tcrsampler/background"
	"github.com/carbocation/tcrsampler/record"
)

// metadataPrefix opens the comment line that carries Metadata at the top of
// a TSV artifact. The CANONICAL layout skips it as a comment.
const metadataPrefix = "#tcrsampler"

// Metadata describes how a stored background was built.
type Metadata struct {
	Weight     string `db:"weight"`
	MaxRows    int    `db:"max_rows"`
	Stratified bool   `db:"stratified"`
	Singleton  bool   `db:"singleton"`
	HasSubject bool   `db:"has_subject"`
}

func MetadataFor(store *background.Store) Metadata {
	return Metadata{
		Weight:     store.Weight.String(),
		MaxRows:    store.MaxRows,
		Stratified: store.Stratified,
		Singleton:  store.Singleton,
		HasSubject: store.HasSubject,
	}
}

// Options returns the build options the metadata records.
func (m Metadata) Options() (background.Options, error) {
	weight, err := record.ParseWeight(m.Weight)
	if err != nil {
		return background.Options{}, err
	}

	return background.Options{
		MaxRows:           m.MaxRows,
		StratifyBySubject: m.Stratified,
		Weight:            weight,
		MakeSingleton:     m.Singleton,
	}, nil
}

func (m Metadata) line() string {
	return fmt.Sprintf("%s\tweight=%s\tmax_rows=%d\tstratified=%t\tsingleton=%t\thas_subject=%t",
		metadataPrefix, m.Weight, m.MaxRows, m.Stratified, m.Singleton, m.HasSubject)
}

func parseMetadataLine(line string) (Metadata, error) {
	var m Metadata

	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) == 0 || fields[0] != metadataPrefix {
		return m, fmt.Errorf("%q is not a background metadata line", line)
	}

	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return m, fmt.Errorf("metadata field %q is not key=value", field)
		}

		var err error
		switch key {
		case "weight":
			m.Weight = value
		case "max_rows":
			m.MaxRows, err = strconv.Atoi(value)
		case "stratified":
			m.Stratified, err = strconv.ParseBool(value)
		case "singleton":
			m.Singleton, err = strconv.ParseBool(value)
		case "has_subject":
			m.HasSubject, err = strconv.ParseBool(value)
		}
		if err != nil {
			return m, fmt.Errorf("metadata field %s: %w", key, err)
		}
	}

	return m, nil
}

// IsSQLite reports whether path names a SQLite background rather than a TSV
// artifact, judged by its extension.
func IsSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}

	return false
}

// WriteArtifact writes store as a TSV artifact: a metadata comment line, then
// the retained rows in pair and rank order.
func WriteArtifact(w io.Writer, store *background.Store) error {
	if _, err := fmt.Fprintln(w, MetadataFor(store).line()); err != nil {
		return err
	}

	return record.WriteTSV(w, store.Records(), store.HasSubject)
}

// LoadArtifact reads a persisted background from either a SQLite file or a
// TSV artifact, with the options it was built with. Pass both to
// background.Restore to get the stored groups back unchanged. A TSV without a
// metadata line, for instance one written by hand, is taken to be
// frequency-weighted.
func LoadArtifact(path string, client *storage.Client) (record.RecordSet, background.Options, error) {
	var (
		rs   record.RecordSet
		meta Metadata
		err  error
	)

	if IsSQLite(path) {
		rs, meta, err = LoadRecords(path)
	} else {
		rs, meta, err = loadTSV(path, client)
	}
	if err != nil {
		return record.RecordSet{}, background.Options{}, err
	}

	opts, err := meta.Options()
	if err != nil {
		return record.RecordSet{}, background.Options{}, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return rs, opts, nil
}

func loadTSV(path string, client *storage.Client) (record.RecordSet, Metadata, error) {
	rc, err := tcrsampler.Open(path, client)
	if err != nil {
		return record.RecordSet{}, Metadata{}, err
	}
	defer rc.Close()

	br := bufio.NewReader(rc)

	var meta Metadata
	if head, err := br.Peek(len(metadataPrefix)); err == nil && string(head) == metadataPrefix {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return record.RecordSet{}, Metadata{}, pfx.Err(err)
		}
		if meta, err = parseMetadataLine(line); err != nil {
			return record.RecordSet{}, Metadata{}, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
	}

	p, err := record.New("CANONICAL")
	if err != nil {
		return record.RecordSet{}, Metadata{}, err
	}

	rs, err := p.Parse(br)
	if err != nil {
		return record.RecordSet{}, Metadata{}, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	meta.HasSubject = rs.HasSubject

	return rs, meta, nil
}
