package tcrsampler

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

type ReadSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Decorates a Google Storage object handle with io.Reader, io.Seeker and
// io.Closer. Derived from
// https://github.com/googleapis/google-cloud-go/issues/1124#issuecomment-419070541
//
// Only seeking back to the start is supported, which is all that compression
// sniffing needs.
type GSReadSeekCloser struct {
	*storage.ObjectHandle
	Context context.Context
	r       *storage.Reader
	pos     int64
}

func (s *GSReadSeekCloser) Read(buf []byte) (int, error) {
	var err error
	if s.r == nil {
		s.r, err = s.NewRangeReader(s.Context, 0, -1)
		if err != nil {
			return 0, err
		}
	}
	n, err := s.r.Read(buf)
	s.pos += int64(n)

	return n, err
}

func (s *GSReadSeekCloser) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart || offset != 0 {
		return s.pos, fmt.Errorf("GSReadSeekCloser can only rewind to the start (got offset %d, whence %d)", offset, whence)
	}

	// Seeking is not actually possible. As a proxy, we close the current
	// connection and let the next Read open a fresh one.
	if s.r != nil {
		s.r.Close()
		s.r = nil
	}
	s.pos = 0

	return 0, nil
}

func (s *GSReadSeekCloser) Close() error {
	if s.r == nil {
		return nil
	}
	err := s.r.Close()
	s.r = nil

	return err
}

// SplitGSPath splits gs://bucket/path/to/object into its bucket and object
// name.
func SplitGSPath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// MaybeOpenSeekerFromGoogleStorage opens gs:// paths with client, and
// anything else from the local filesystem (after ~ expansion). The size of
// the object is returned alongside.
func MaybeOpenSeekerFromGoogleStorage(path string, client *storage.Client) (ReadSeekCloser, int64, error) {
	if strings.HasPrefix(path, "gs://") {
		if client == nil {
			return nil, 0, fmt.Errorf("%s: a Google Storage client is required for gs:// paths", path)
		}

		bucketName, pathName, err := SplitGSPath(path)
		if err != nil {
			return nil, 0, err
		}

		wrappedHandle := &GSReadSeekCloser{
			ObjectHandle: client.Bucket(bucketName).Object(pathName),
			Context:      context.Background(),
		}

		// Make a hard call to get the filesize
		attrs, err := wrappedHandle.ObjectHandle.Attrs(wrappedHandle.Context)
		if err != nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}

		return wrappedHandle, attrs.Size, nil
	}

	f, err := os.Open(ExpandHome(path))
	if err != nil {
		return nil, 0, err
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, fstat.Size(), nil
}
