package chemdict

import (
	"sort"

	"github.com/rcsb/chemdict/cif"
)

// Block is one definition record as parsed from a source archive.
type Block = cif.Block

// Store maps component identifiers to definition records.
//
// Keys are case-preserving and unique within one build. A Store is immutable
// once its Provider is constructed; consumers must not modify it or the
// records it holds.
type Store map[string]*cif.Block

// Get returns the record for id. Misses report ok=false and never an error;
// callers routinely probe speculative identifiers.
func (s Store) Get(id string) (*cif.Block, bool) {
	b, ok := s[id]
	return b, ok
}

// Keys returns all identifiers in ascending order.
func (s Store) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EstimateSize approximates the in-memory footprint of the store in bytes.
// Diagnostic only; never used for control flow.
func (s Store) EstimateSize() int64 {
	const (
		stringOverhead = 16
		sliceOverhead  = 24
	)
	var size int64
	for id, b := range s {
		size += int64(len(id)) + stringOverhead
		size += int64(len(b.Name)) + stringOverhead + sliceOverhead
		for i := range b.Categories {
			c := &b.Categories[i]
			size += int64(len(c.Name)) + stringOverhead + 2*sliceOverhead
			for _, col := range c.Columns {
				size += int64(len(col)) + stringOverhead
			}
			for _, row := range c.Rows {
				size += sliceOverhead
				for _, v := range row {
					size += int64(len(v)) + stringOverhead
				}
			}
		}
	}
	return size
}

// truncateSorted keeps the first n keys in ascending sorted order. This is
// the cache-reload truncation; fresh builds truncate the record stream
// instead (see truncateFresh), and the two orderings differ on purpose.
func truncateSorted(s Store, n int) Store {
	if n <= 0 || len(s) <= n {
		return s
	}
	out := make(Store, n)
	for _, k := range s.Keys()[:n] {
		out[k] = s[k]
	}
	return out
}

// filterStore retains only records whose identifier is in the allow-list.
func filterStore(s Store, ids map[string]struct{}) Store {
	out := make(Store, len(ids))
	for k, v := range s {
		if _, ok := ids[k]; ok {
			out[k] = v
		}
	}
	return out
}
