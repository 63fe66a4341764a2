package store

import (
	"fmt"
	"os"
)

// RenamePair is one temp-to-final swap produced by Append/Prepend/Replace/Remove.
type RenamePair struct {
	Temp  string
	Final string
}

// RenameBatch renames every pair sequentially. On the first failure it
// unlinks every temp that has not yet been renamed and returns the
// error; it does not attempt to undo renames that already succeeded —
// per spec.md §5/§9, a partially applied batch is a detectable (not
// self-healing) state, and the caller must treat that record-set as
// possibly partially mutated.
func (s *Store) RenameBatch(pairs []RenamePair) error {
	for i, p := range pairs {
		if err := os.Rename(p.Temp, p.Final); err != nil {
			for _, rest := range pairs[i:] {
				_ = os.Remove(rest.Temp)
			}
			return fmt.Errorf("store: rename %s -> %s: %w", p.Temp, p.Final, err)
		}
	}
	return nil
}

// AbortBatch unlinks every temp file in pairs; used when a pipeline step
// after the writes (but before renaming) fails, e.g. a uniqueness check.
func (s *Store) AbortBatch(pairs []RenamePair) {
	for _, p := range pairs {
		_ = os.Remove(p.Temp)
	}
}
