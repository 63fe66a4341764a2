package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inibase/internal/codec"
	"inibase/internal/icrypto"
	"inibase/internal/schema"
	"inibase/internal/store"
)

var testSalt = []byte("01234567890123456789012345678901")

func newResolverWithSalt(t *testing.T) *Resolver {
	t.Helper()
	r := newTestResolver(t)
	r.Salt = testSalt
	return r
}

func TestGetAssemblesPlainRecordsWithOpaqueIDs(t *testing.T) {
	r := newResolverWithSalt(t)
	records, page, err := Get(r, nil, nil, Options{}, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assert.Len(t, records, 3)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.TotalPages)

	for _, rec := range records {
		opaque, ok := rec["id"].(string)
		if assert.True(t, ok) {
			_, ok := icrypto.DecodeID(opaque, testSalt)
			assert.True(t, ok)
		}
	}
}

func TestGetHonorsWhereCriteria(t *testing.T) {
	r := newResolverWithSalt(t)
	records, page, err := Get(r, nil, map[string]any{"name": "bob"}, Options{}, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assert.Len(t, records, 1)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "bob", records[0]["name"])
}

func TestGetFiltersColumnsByProjection(t *testing.T) {
	r := newResolverWithSalt(t)
	records, _, err := Get(r, nil, nil, Options{Columns: []string{"name"}}, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, rec := range records {
		_, hasAge := rec["age"]
		assert.False(t, hasAge)
		_, hasName := rec["name"]
		assert.True(t, hasName)
	}
}

func TestAssembleLinesPreservesRequestedOrder(t *testing.T) {
	r := newResolverWithSalt(t)
	records, err := AssembleLines(r, nil, []int{3, 1}, nil, 0)
	if err != nil {
		t.Fatalf("assemble lines: %v", err)
	}
	if assert.Len(t, records, 2) {
		assert.Equal(t, "carol", records[0]["name"])
		assert.Equal(t, "alice", records[1]["name"])
	}
}

func TestGetOnEmptyTableReturnsEmptyPage(t *testing.T) {
	s := store.New(t.TempDir(), false, nil)
	r := &Resolver{Store: s, Schema: schema.Schema{
		{Key: "id", Type: []codec.FieldType{codec.TID}},
	}, Salt: testSalt}

	records, page, err := Get(r, nil, nil, Options{}, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assert.Empty(t, records)
	assert.Equal(t, 0, page.Total)
}
