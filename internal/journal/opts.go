package journal

import (
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// openDB opens the journal database under path, or an in-memory one when
// path is empty.
func openDB(path string) (*badger.DB, error) {
	if path == "" {
		opts := badger.DefaultOptions("").
			WithInMemory(true).
			WithNumVersionsToKeep(1).
			WithLogger(nil)
		return badger.Open(opts)
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	opts := badger.DefaultOptions(path).
		WithNumVersionsToKeep(1).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}
	return db, nil
}
