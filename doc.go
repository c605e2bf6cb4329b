// Package chemdict maintains disk-cached dictionaries of chemical component
// reference data and exposes them by stable identifier.
//
// The central type is [Provider]: constructed once per configuration, it
// either reloads a previously materialized cache artifact or fetches the
// primary (CCD) and supplementary (BIRD) source archives, parses them into
// keyed definition records, and serializes the result for the next process.
// The resulting [Store] is immutable and safe for concurrent readers.
//
// # Quick start
//
// Build or reload the dictionary with defaults (wwPDB archives, ./chem_comp
// cache directory):
//
//	p, err := chemdict.New(ctx, chemdict.WithCacheDir("/var/cache/chemdict"))
//	if err != nil {
//	    return err
//	}
//	if !p.Valid(29000) {
//	    return errors.New("chemical component cache is unusable")
//	}
//	atp, ok := p.Get("ATP")
//
// Downstream tools (search-index builders, depiction renderers) receive the
// store or individual records and never mutate them.
//
// # Caching
//
// The cache artifact lives at <cacheDir>/<prefix>-data.<ext>. A ".json"
// extension selects a structured-text artifact; anything else is binary.
// Reuse the same configuration across a process through a [Registry], which
// builds each distinct configuration exactly once.
//
// Failure containment: fetch, parse and serialize failures degrade to a
// logged diagnostic and a partial in-memory store; [Provider.Valid] is the
// single authoritative signal that the cache is unusable. Concurrent builds
// against the same artifact path from separate processes are not
// synchronized and race with last-writer-wins semantics at the filesystem
// level.
package chemdict
