package tcrsampler

import (
	"io"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// Open returns the decompressed contents of a local or gs:// path. client may
// be nil when no gs:// paths are used.
func Open(path string, client *storage.Client) (io.ReadCloser, error) {
	f, _, err := MaybeOpenSeekerFromGoogleStorage(path, client)
	if err != nil {
		return nil, pfx.Err(err)
	}

	rc, err := MaybeDecompressReadCloser(f)
	if err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	return rc, nil
}
