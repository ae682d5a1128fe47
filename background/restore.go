package background

import (
	"github.com/carbocation/tcrsampler/record"
)

// Restore rebuilds a Store from the rows of a persisted background, such as
// Store.Records wrote them. Rows are grouped by their own (V, J) in the order
// given, with no re-ranking, capping or singleton override, so each group
// comes back in the row order it was saved with and a seeded draw picks the
// same sequences it did before saving. opts only describes how the
// background was originally built; its Weight becomes the Store's default
// weight column.
//
// The frequency tables are computed over the restored rows, since the full
// record set the background was built from is not persisted.
func Restore(rs record.RecordSet, opts Options) (*Store, *Tables) {
	store := newStore(opts, rs.HasSubject)

	for _, r := range rs.Records {
		pair := r.Pair()
		store.groups[pair] = append(store.groups[pair], r)
	}

	return store, computeTables(rs.Records, false)
}
