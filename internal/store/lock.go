package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Lock acquires a named lock by exclusively creating a marker file under
// .tmp/ — the file's mere existence IS the lock (spec.md §4.4/§5). It
// retries with bounded exponential backoff until ctx is done, at which
// point it gives up and returns ctx.Err(). Release unlinks the marker;
// callers must defer it on every path, including error returns, so a
// cancelled or failed mutation never leaves an orphan lock.
func (s *Store) Lock(ctx context.Context, key string) (release func(), err error) {
	if err := s.EnsureDirs(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.tmpDir(), "lock-"+key)
	backoff := time.Millisecond
	const maxBackoff = 100 * time.Millisecond
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("store: create lock %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// CleanOrphanTemps removes every leftover file under .tmp/, including
// stale lock markers — safe to call only when no mutation against this
// table is in flight (e.g. at Engine.Open), since a temp file a crashed
// writer left behind was never renamed into place (spec.md §5).
func (s *Store) CleanOrphanTemps() error {
	entries, err := os.ReadDir(s.tmpDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("store: read .tmp: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		_ = os.Remove(filepath.Join(s.tmpDir(), e.Name()))
	}
	return nil
}
