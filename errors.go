package chemdict

import "errors"

// Sentinel errors.
var (
	// ErrSerializeFailed is returned in strict mode when the cache artifact
	// cannot be written. In lenient mode the failure is logged and the
	// in-memory store remains usable.
	ErrSerializeFailed = errors.New("chemdict: cache artifact write failed")

	// ErrPartialParse is returned in strict mode when one of the source
	// archives could not be fully parsed.
	ErrPartialParse = errors.New("chemdict: source archive partially parsed")
)
