// Package background groups canonical records by gene-segment pair into a
// capped, ranked sampling store, and estimates gene-usage frequencies from
// the full record set.
package background

import (
	"fmt"
	"sort"
	"strings"

	"github.com/carbocation/tcrsampler/record"
	"github.com/cheggaaa/pb/v3"
)

const DefaultMaxRows = 100

type Options struct {
	// MaxRows caps each group, or each subject's slice of a group when
	// StratifyBySubject is set. Zero means DefaultMaxRows.
	MaxRows int

	StratifyBySubject bool

	// Weight selects the ranking column.
	Weight record.Weight

	// MakeSingleton overwrites Count and Freq with 1 on every retained row,
	// after ranking and capping, so draws within a group are uniform.
	MakeSingleton bool

	// SplitAmbiguous registers rows whose V or J holds several
	// comma-separated calls under every (v, j) combination.
	SplitAmbiguous bool

	// Progress, if set, is advanced once per group.
	Progress *pb.ProgressBar
}

// MissingFieldError reports that an operation needs a column the record set
// does not have.
type MissingFieldError struct {
	Field     string
	Operation string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s requires the %s field, which the records do not have", e.Operation, e.Field)
}

// Build groups rs into a Store and computes the frequency Tables. The tables
// always describe the full record set; capping only affects the Store.
func Build(rs record.RecordSet, opts Options) (*Store, *Tables, error) {
	if opts.MaxRows < 0 {
		return nil, nil, fmt.Errorf("MaxRows must be positive, got %d", opts.MaxRows)
	} else if opts.MaxRows == 0 {
		opts.MaxRows = DefaultMaxRows
	}

	if opts.StratifyBySubject && !rs.HasSubject {
		return nil, nil, &MissingFieldError{Field: "subject", Operation: "stratification by subject"}
	}

	store := newStore(opts, rs.HasSubject)

	order, members := groupByPair(rs.Records, opts.SplitAmbiguous)

	if opts.Progress != nil {
		opts.Progress.SetTotal(int64(len(order)))
	}

	for _, pair := range order {
		idx := members[pair]

		var group Group
		if opts.StratifyBySubject {
			group = stratifiedGroup(rs.Records, idx, opts)
		} else {
			group = rankedGroup(rs.Records, idx, opts)
		}

		for i := range group {
			group[i].V, group[i].J = pair.V, pair.J
			if opts.MakeSingleton {
				group[i].Count = 1
				group[i].Freq = 1
			}
		}

		store.groups[pair] = group

		if opts.Progress != nil {
			opts.Progress.Increment()
		}
	}

	tables := computeTables(rs.Records, opts.SplitAmbiguous)

	return store, tables, nil
}

// groupByPair returns the pairs in order of first appearance and the record
// indices belonging to each.
func groupByPair(records []record.Record, split bool) ([]record.Pair, map[record.Pair][]int) {
	order := make([]record.Pair, 0)
	members := make(map[record.Pair][]int)

	for i, r := range records {
		for _, pair := range expandPair(r, split) {
			if _, seen := members[pair]; !seen {
				order = append(order, pair)
			}
			members[pair] = append(members[pair], i)
		}
	}

	return order, members
}

// expandPair returns the record's own pair, or with split set, every sorted
// combination of its comma-separated V and J calls.
func expandPair(r record.Record, split bool) []record.Pair {
	if !split || (!strings.Contains(r.V, ",") && !strings.Contains(r.J, ",")) {
		return []record.Pair{r.Pair()}
	}

	vs, js := splitCalls(r.V), splitCalls(r.J)
	out := make([]record.Pair, 0, len(vs)*len(js))
	for _, v := range vs {
		for _, j := range js {
			out = append(out, record.Pair{V: v, J: j})
		}
	}

	return out
}

func splitCalls(genes string) []string {
	parts := strings.Split(genes, ",")
	out := parts[:0]
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if _, dup := seen[p]; p == "" || dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)

	return out
}

// rankedGroup copies the indexed records, sorts them by weight descending
// (ties keep input order) and caps them.
func rankedGroup(records []record.Record, idx []int, opts Options) Group {
	group := make(Group, len(idx))
	for i, k := range idx {
		group[i] = records[k]
	}

	sort.SliceStable(group, func(a, b int) bool {
		return group[a].Weight(opts.Weight) > group[b].Weight(opts.Weight)
	})

	if len(group) > opts.MaxRows {
		group = group[:opts.MaxRows:opts.MaxRows]
	}

	return group
}

// stratifiedGroup caps each subject independently and concatenates the
// subjects in order of first appearance. The union is not re-capped.
func stratifiedGroup(records []record.Record, idx []int, opts Options) Group {
	subjects := make([]string, 0)
	bySubject := make(map[string][]int)
	for _, k := range idx {
		s := records[k].Subject
		if _, seen := bySubject[s]; !seen {
			subjects = append(subjects, s)
		}
		bySubject[s] = append(bySubject[s], k)
	}

	out := make(Group, 0, len(idx))
	for _, s := range subjects {
		out = append(out, rankedGroup(records, bySubject[s], opts)...)
	}

	return out
}
