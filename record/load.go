package record

import (
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/tcrsampler"
)

// Load reads a record set from a local or gs:// path, transparently
// decompressing it. client may be nil for local paths.
func Load(path string, layout Layout, client *storage.Client) (RecordSet, error) {
	p, err := NewWithLayout(layout)
	if err != nil {
		return RecordSet{}, err
	}

	rc, err := tcrsampler.Open(path, client)
	if err != nil {
		return RecordSet{}, err
	}
	defer rc.Close()

	rs, err := p.Parse(rc)
	if err != nil {
		return RecordSet{}, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return rs, nil
}

// LoadPerSubject reads one file per subject, labeling each file's rows with
// subject(path), and concatenates the results in the order given.
func LoadPerSubject(paths []string, layout Layout, client *storage.Client, subject func(path string) string) (RecordSet, error) {
	p, err := NewWithLayout(layout)
	if err != nil {
		return RecordSet{}, err
	}

	out := RecordSet{HasSubject: true}
	for _, path := range paths {
		rc, err := tcrsampler.Open(path, client)
		if err != nil {
			return RecordSet{}, err
		}

		rs, err := p.ParseWithSubject(rc, subject(path))
		rc.Close()
		if err != nil {
			return RecordSet{}, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

		out = out.Concat(rs)
	}

	return out, nil
}
