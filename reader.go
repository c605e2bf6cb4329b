package chemdict

import (
	"fmt"
	"log/slog"

	"github.com/rcsb/chemdict/cif"
)

// Result is the outcome of reading the source archives. A failed parse of
// one archive degrades to zero records for that file and a warning, so a
// partial result is still usable; strict callers can reject it instead.
type Result struct {
	Store    Store
	Warnings []string
}

// Partial reports whether any source archive failed to contribute records.
func (r Result) Partial() bool {
	return len(r.Warnings) > 0
}

// readDefinitions parses the primary archive, appends the supplementary
// archive's records after it, truncates the combined stream, and keys each
// record by its resolved identifier.
func readDefinitions(logger *slog.Logger, primaryPath, supplementaryPath string, limit int) Result {
	var warnings []string

	blocks, err := cif.ReadFile(primaryPath)
	if err != nil {
		logger.Error("reading primary archive failed", "path", primaryPath, "err", err)
		warnings = append(warnings, fmt.Sprintf("primary %s: %v", primaryPath, err))
	} else {
		logger.Info("read primary archive", "path", primaryPath, "count", len(blocks))
	}

	if supplementaryPath != "" {
		supplementary, err := cif.ReadFile(supplementaryPath)
		if err != nil {
			logger.Error("reading supplementary archive failed", "path", supplementaryPath, "err", err)
			warnings = append(warnings, fmt.Sprintf("supplementary %s: %v", supplementaryPath, err))
		} else {
			logger.Info("read supplementary archive", "path", supplementaryPath, "count", len(supplementary))
		}
		// Supplementary records follow primary ones, so on identifier
		// collision the supplementary record wins.
		blocks = append(blocks, supplementary...)
	}

	blocks = truncateFresh(blocks, limit)

	store := make(Store, len(blocks))
	for _, b := range blocks {
		id := cif.ComponentID(b)
		if _, exists := store[id]; exists {
			logger.Debug("identifier collision, keeping later record", "id", id)
		}
		store[id] = b
	}
	return Result{Store: store, Warnings: warnings}
}

// truncateFresh keeps the first n records in combined stream order. This is
// the fresh-build truncation; reloads truncate by sorted key instead (see
// truncateSorted), and the two orderings differ on purpose.
func truncateFresh(blocks []*cif.Block, n int) []*cif.Block {
	if n <= 0 || len(blocks) <= n {
		return blocks
	}
	return blocks[:n]
}
