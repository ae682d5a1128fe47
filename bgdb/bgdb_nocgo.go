//go:build !cgo
// +build !cgo

package bgdb

import (
	"errors"

	"github.com/carbocation/tcrsampler/background"
	"github.com/carbocation/tcrsampler/record"
)

var ErrNoSQLite = errors.New("SQLite support requires cgo; rebuild with CGO_ENABLED=1 or use a TSV artifact")

func Save(path string, store *background.Store) error {
	return ErrNoSQLite
}

func LoadRecords(path string) (record.RecordSet, Metadata, error) {
	return record.RecordSet{}, Metadata{}, ErrNoSQLite
}
