package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func apply(t *testing.T, s *Store, pair RenamePair, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := s.RenameBatch([]RenamePair{pair}); err != nil {
		t.Fatalf("rename batch: %v", err)
	}
}

func TestAppendThenForEachLineSeesAllRows(t *testing.T) {
	s := New(t.TempDir(), false, nil)
	path := s.ColumnPath("name.txt")
	apply(t, s, s.Append(path, []string{"a", "b", "c"}))

	var got []string
	total, err := s.ForEachLine(path, func(_ int, raw string) bool {
		got = append(got, raw)
		return false
	})
	if err != nil {
		t.Fatalf("for each line: %v", err)
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestPrependInsertsAtFront(t *testing.T) {
	s := New(t.TempDir(), false, nil)
	path := s.ColumnPath("n.txt")
	apply(t, s, s.Append(path, []string{"2", "3"}))
	apply(t, s, s.Prepend(path, []string{"1"}))

	lines, total, err := s.Get(path, nil, true)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, "1", lines[1])
	assert.Equal(t, "2", lines[2])
	assert.Equal(t, "3", lines[3])
}

func TestReplaceOverwritesByLineNumberAndPads(t *testing.T) {
	s := New(t.TempDir(), false, nil)
	path := s.ColumnPath("n.txt")
	apply(t, s, s.Append(path, []string{"a", "b"}))
	apply(t, s, s.Replace(path, map[int]string{2: "B", 4: "D"}))

	lines, total, err := s.Get(path, nil, true)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assert.Equal(t, 4, total)
	assert.Equal(t, "a", lines[1])
	assert.Equal(t, "B", lines[2])
	assert.Equal(t, "", lines[3])
	assert.Equal(t, "D", lines[4])
}

func TestRemoveShiftsSubsequentLinesUp(t *testing.T) {
	s := New(t.TempDir(), false, nil)
	path := s.ColumnPath("n.txt")
	apply(t, s, s.Append(path, []string{"a", "b", "c"}))
	apply(t, s, s.Remove(path, map[int]bool{2: true}))

	lines, total, err := s.Get(path, nil, true)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, "a", lines[1])
	assert.Equal(t, "c", lines[2])
}

func TestGetLastReturnsFinalLine(t *testing.T) {
	s := New(t.TempDir(), false, nil)
	path := s.ColumnPath("n.txt")
	apply(t, s, s.Append(path, []string{"a", "b", "c"}))

	last, total, err := s.GetLast(path)
	if err != nil {
		t.Fatalf("get last: %v", err)
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, "c", last)
}

func TestForEachLineOnMissingFileYieldsZeroLines(t *testing.T) {
	s := New(t.TempDir(), false, nil)
	path := s.ColumnPath("never-written.txt")
	total, err := s.ForEachLine(path, func(int, string) bool { return false })
	if err != nil {
		t.Fatalf("for each line: %v", err)
	}
	assert.Equal(t, 0, total)
}

func TestAggregatesSkipBlankLines(t *testing.T) {
	s := New(t.TempDir(), false, nil)
	path := s.ColumnPath("age.txt")
	apply(t, s, s.Append(path, []string{"10", "", "30"}))

	sum, err := s.Sum(path)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	assert.Equal(t, float64(40), sum)

	max, found, err := s.Max(path)
	if err != nil {
		t.Fatalf("max: %v", err)
	}
	assert.True(t, found)
	assert.Equal(t, float64(30), max)

	min, found, err := s.Min(path)
	if err != nil {
		t.Fatalf("min: %v", err)
	}
	assert.True(t, found)
	assert.Equal(t, float64(10), min)
}

func TestClearCacheRecreatesEmptyDir(t *testing.T) {
	s := New(t.TempDir(), false, nil)
	if err := s.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	if err := s.ClearCache(); err != nil {
		t.Fatalf("clear cache: %v", err)
	}
	entries, err := os.ReadDir(s.CacheDir())
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	assert.Empty(t, entries)
}

func TestLockExcludesConcurrentAcquireUntilReleased(t *testing.T) {
	s := New(t.TempDir(), false, nil)
	ctx := context.Background()

	release, err := s.Lock(ctx, "table")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = s.Lock(shortCtx, "table")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release2, err := s.Lock(ctx, "table")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	release2()
}
