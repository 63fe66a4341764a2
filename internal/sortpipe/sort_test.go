package sortpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inibase/internal/codec"
	"inibase/internal/query"
	"inibase/internal/schema"
	"inibase/internal/store"
)

func newSortTestResolver(t *testing.T) *query.Resolver {
	t.Helper()
	s := store.New(t.TempDir(), false, nil)
	if err := s.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	sc := schema.Schema{
		{Key: "id", Type: []codec.FieldType{codec.TID}},
		{Key: "name", Type: []codec.FieldType{codec.TString}},
		{Key: "age", Type: []codec.FieldType{codec.TNumber}},
	}
	write := func(path string, vals []string) {
		pair, err := s.Append(path, vals)
		if err != nil {
			t.Fatalf("append %s: %v", path, err)
		}
		if err := s.RenameBatch([]store.RenamePair{pair}); err != nil {
			t.Fatalf("rename %s: %v", path, err)
		}
	}
	write(s.ColumnPath(schema.ColumnFileName("id", false)), []string{"1", "2", "3"})
	write(s.ColumnPath(schema.ColumnFileName("name", false)), []string{"carol", "alice", "bob"})
	write(s.ColumnPath(schema.ColumnFileName("age", false)), []string{"40", "30", "25"})
	return &query.Resolver{Store: s, Schema: sc, Salt: []byte("01234567890123456789012345678901")}
}

func TestParseSpecAcceptsEveryShape(t *testing.T) {
	assert.Equal(t, []Key{{Path: "name"}}, ParseSpec("name"))
	assert.Equal(t, []Key{{Path: "a"}, {Path: "b"}}, ParseSpec([]string{"a", "b"}))

	keys := ParseSpec(map[string]any{"age": "desc"})
	if assert.Len(t, keys, 1) {
		assert.Equal(t, "age", keys[0].Path)
		assert.True(t, keys[0].Desc)
	}

	pairKeys := ParseSpec([]any{[]any{"age", "asc"}})
	if assert.Len(t, pairKeys, 1) {
		assert.Equal(t, "age", pairKeys[0].Path)
		assert.False(t, pairKeys[0].Desc)
	}
}

func TestRunOrdersRecordsByAscendingKey(t *testing.T) {
	r := newSortTestResolver(t)
	records, page, err := Run(r, nil, nil, "name", query.Options{}, false, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assert.Equal(t, 3, page.Total)
	if assert.Len(t, records, 3) {
		assert.Equal(t, "alice", records[0]["name"])
		assert.Equal(t, "bob", records[1]["name"])
		assert.Equal(t, "carol", records[2]["name"])
	}
}

func TestRunOrdersRecordsByDescendingKey(t *testing.T) {
	r := newSortTestResolver(t)
	records, _, err := Run(r, nil, nil, map[string]any{"age": "desc"}, query.Options{}, false, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if assert.Len(t, records, 3) {
		assert.Equal(t, "carol", records[0]["name"])
		assert.Equal(t, "alice", records[1]["name"])
		assert.Equal(t, "bob", records[2]["name"])
	}
}

func TestRunRestrictsByWhereBeforeSorting(t *testing.T) {
	r := newSortTestResolver(t)
	records, page, err := Run(r, nil, map[string]any{"age": ">26"}, "name", query.Options{}, false, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assert.Equal(t, 2, page.Total)
	if assert.Len(t, records, 2) {
		assert.Equal(t, "alice", records[0]["name"])
		assert.Equal(t, "carol", records[1]["name"])
	}
}

func TestRunCachesOrderWhenEnabled(t *testing.T) {
	r := newSortTestResolver(t)
	_, _, err := Run(r, nil, nil, "name", query.Options{}, true, 0)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	keys := ParseSpec("name")
	hash := SpecHash(keys, nil)
	order, ok := readCache(r.Store.CacheDir() + "/" + hash)
	if assert.True(t, ok) {
		assert.Equal(t, []int{2, 3, 1}, order)
	}
}

func TestRunRejectsEmptySortSpec(t *testing.T) {
	r := newSortTestResolver(t)
	_, _, err := Run(r, nil, nil, nil, query.Options{}, false, 0)
	assert.Error(t, err)
}
