package tcrsampler

import (
	"bufio"
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// sniffBytes bounds how much of a stream is inspected when guessing the
// delimiter. Reference backgrounds can be hundreds of megabytes.
const sniffBytes = 64 * 1024

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// PeekDelimiter guesses the delimiter from the head of r without consuming
// it. The returned reader replays the inspected bytes, so it works on
// non-seekable sources such as decompression streams.
func PeekDelimiter(r io.Reader) (rune, io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffBytes)
	head, err := br.Peek(sniffBytes)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, nil, err
	}

	// A header with only one of the two usual delimiters settles it.
	firstLine := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		firstLine = head[:i]
	}
	tabs, commas := bytes.Count(firstLine, []byte{'\t'}), bytes.Count(firstLine, []byte{','})
	if tabs > 0 && commas == 0 {
		return '\t', br, nil
	} else if commas > 0 && tabs == 0 {
		return ',', br, nil
	}

	// Only whole lines go to the detector; a truncated final line skews the
	// per-line frequency counts it relies on.
	if i := bytes.LastIndexByte(head, '\n'); i >= 0 && len(head) == sniffBytes {
		head = head[:i+1]
	}

	return DetermineDelimiter(bytes.NewReader(head)), br, nil
}
