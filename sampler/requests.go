package sampler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/tcrsampler"
	"github.com/carbocation/tcrsampler/record"
)

// ParseRequests reads v, j, n rows. A header row, recognized by a
// non-numeric third column on the first line, is skipped. Lines starting with
// # are comments.
func ParseRequests(r io.Reader) ([]Request, error) {
	delim, r, err := tcrsampler.PeekDelimiter(r)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.Comment = '#'
	cr.FieldsPerRecord = -1

	out := make([]Request, 0)
	for i := 0; ; i++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)

		if len(row) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 columns (v, j, n), got %d", line, len(row))
		}

		n, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("line %d: negative count %d", line, n)
		}

		out = append(out, Request{
			V: strings.TrimSpace(row[0]),
			J: strings.TrimSpace(row[1]),
			N: n,
		})
	}

	return out, nil
}

// UsageRequests turns an observed list of pairs (for instance the gene calls
// of a repertoire to be matched) into one request per distinct pair, in order
// of first appearance, with N the number of times the pair occurred.
func UsageRequests(pairs []record.Pair) []Request {
	index := make(map[record.Pair]int)
	out := make([]Request, 0)
	for _, p := range pairs {
		if i, seen := index[p]; seen {
			out[i].N++
			continue
		}
		index[p] = len(out)
		out = append(out, Request{V: p.V, J: p.J, N: 1})
	}

	return out
}
