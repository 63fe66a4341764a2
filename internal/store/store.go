// Package store implements the line-oriented column-file engine: one
// record-value per line, one file per scalar column path, with every
// mutation going through a temp-file-then-rename swap so a reader never
// observes a half-written file (spec.md §4.4, I5). Grounded in the
// teacher's file-handling idioms (os.ReadFile/os.WriteFile + fmt.Errorf
// wrapping throughout internal/apply and internal/parser/toml) and, for
// the lock/rename discipline itself, the append-only WAL and pager
// patterns surfaced by the retrieval pack's other storage-engine
// examples (k4, zmux-server's objectstore).
package store

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Store operates on the column files of a single table directory.
type Store struct {
	Dir        string
	Compressed bool
	Log        *zap.Logger
}

// New returns a Store rooted at dir. A nil logger is replaced with a
// no-op logger so callers never need a nil check.
func New(dir string, compressed bool, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{Dir: dir, Compressed: compressed, Log: log}
}

func (s *Store) tmpDir() string   { return filepath.Join(s.Dir, ".tmp") }
func (s *Store) cacheDir() string { return filepath.Join(s.Dir, ".cache") }

// EnsureDirs creates the table's .tmp and .cache directories if absent.
func (s *Store) EnsureDirs() error {
	if err := os.MkdirAll(s.tmpDir(), 0o755); err != nil {
		return fmt.Errorf("store: create .tmp: %w", err)
	}
	if err := os.MkdirAll(s.cacheDir(), 0o755); err != nil {
		return fmt.Errorf("store: create .cache: %w", err)
	}
	return nil
}

// ColumnPath returns the absolute path of a column file by its on-disk
// file name (as produced by schema.ColumnFileName).
func (s *Store) ColumnPath(fileName string) string {
	return filepath.Join(s.Dir, fileName)
}

// ClearCache removes and recreates the table's .cache directory,
// invalidating every cached sort projection (spec.md §4.8/§6's
// clearCache op; also run after any mutation when caching is enabled).
func (s *Store) ClearCache() error {
	if err := os.RemoveAll(s.cacheDir()); err != nil {
		return fmt.Errorf("store: clear cache: %w", err)
	}
	return os.MkdirAll(s.cacheDir(), 0o755)
}

// CacheDir exposes the table's .cache directory for the sort pipeline.
func (s *Store) CacheDir() string { return s.cacheDir() }

func (s *Store) newTempPath(fileName string) string {
	return filepath.Join(s.tmpDir(), fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileName))
}

// openReader opens path for line-oriented reading, transparently
// decompressing when s.Compressed (and the file exists; a missing column
// file reads as zero lines rather than an error, since a freshly-added
// field has no file yet).
func (s *Store) openReader(path string) (io.ReadCloser, *bufio.Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if !s.Compressed {
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		return f, sc, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("store: gzip reader %s: %w", path, err)
	}
	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &gzReadCloser{gz: gz, f: f}, sc, nil
}

type gzReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }
func (g *gzReadCloser) Close() error {
	_ = g.gz.Close()
	return g.f.Close()
}

func newWriter(w io.Writer, compressed bool) (io.WriteCloser, error) {
	if !compressed {
		return nopCloser{w}, nil
	}
	return gzip.NewWriter(w), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func writeLines(path string, compressed bool, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store: create %s: %w", path, err)
	}
	defer f.Close()
	wc, err := newWriter(f, compressed)
	if err != nil {
		return err
	}
	defer wc.Close()
	bw := bufio.NewWriter(wc)
	for _, l := range lines {
		if _, err := bw.WriteString(l); err != nil {
			return fmt.Errorf("store: write %s: %w", path, err)
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return fmt.Errorf("store: write %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("store: flush %s: %w", path, err)
	}
	return nil
}

func parseLineAsInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
