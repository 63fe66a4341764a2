package mutate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"inibase/internal/codec"
	"inibase/internal/schema"
	"inibase/internal/store"
)

var testSalt = []byte("01234567890123456789012345678901")

func newTestTable(t *testing.T) *Table {
	t.Helper()
	dir := t.TempDir()
	s := store.New(dir, false, nil)
	if err := s.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	sc := schema.WithImplicitFields(schema.Schema{
		{Key: "name", Type: []codec.FieldType{codec.TString}, Required: true},
		{Key: "email", Type: []codec.FieldType{codec.TEmail}, Unique: true},
	})
	return &Table{Store: s, Dir: dir, Schema: sc, Salt: testSalt}
}

func TestPostAssignsIDsAndReturnsPostedRecords(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()

	out, err := tbl.Post(ctx, []map[string]any{
		{"name": "alice", "email": "alice@example.com"},
		{"name": "bob", "email": "bob@example.com"},
	}, true)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if assert.Len(t, out, 2) {
		assert.Equal(t, "alice", out[0]["name"])
		assert.Equal(t, "bob", out[1]["name"])
		assert.NotEmpty(t, out[0]["id"])
	}
}

func TestPostRejectsMissingRequiredField(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Post(context.Background(), []map[string]any{
		{"email": "x@example.com"},
	}, false)
	assert.Error(t, err)
}

func TestPostRejectsDuplicateUniqueValue(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	_, err := tbl.Post(ctx, []map[string]any{{"name": "a", "email": "dup@example.com"}}, false)
	if err != nil {
		t.Fatalf("first post: %v", err)
	}
	_, err = tbl.Post(ctx, []map[string]any{{"name": "b", "email": "dup@example.com"}}, false)
	assert.Error(t, err)
}

func TestPutUpdatesByOpaqueIDAndStampsUpdatedAt(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	posted, err := tbl.Post(ctx, []map[string]any{{"name": "alice", "email": "alice@example.com"}}, true)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	id := posted[0]["id"].(string)

	updated, err := tbl.Put(ctx, map[string]any{"id": id, "name": "alice2"}, nil, true)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if assert.Len(t, updated, 1) {
		assert.Equal(t, "alice2", updated[0]["name"])
		assert.NotEmpty(t, updated[0]["updatedAt"])
	}
}

func TestPutWithoutWhereOrIDUpdatesEveryRecord(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	_, err := tbl.Post(ctx, []map[string]any{
		{"name": "alice", "email": "alice@example.com"},
		{"name": "bob", "email": "bob@example.com"},
	}, false)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	updated, err := tbl.Put(ctx, map[string]any{"name": "everyone"}, nil, true)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if assert.Len(t, updated, 2) {
		assert.Equal(t, "everyone", updated[0]["name"])
		assert.Equal(t, "everyone", updated[1]["name"])
	}
}

func TestPutWithoutWhereOrIDOnEmptyTableFails(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Put(context.Background(), map[string]any{"name": "x"}, nil, false)
	assert.Error(t, err)
}

func TestDeleteByWhereRemovesOnlyMatchingRecord(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	_, err := tbl.Post(ctx, []map[string]any{
		{"name": "alice", "email": "alice@example.com"},
		{"name": "bob", "email": "bob@example.com"},
	}, false)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if err := tbl.Delete(ctx, map[string]any{"name": "alice"}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	remaining, err := tbl.Store.CountLines(tbl.Store.ColumnPath(schema.ColumnFileName("name", false)))
	if err != nil {
		t.Fatalf("count lines: %v", err)
	}
	assert.Equal(t, 1, remaining)
}

func TestDeleteWithoutWhereUnlinksAllColumns(t *testing.T) {
	tbl := newTestTable(t)
	ctx := context.Background()
	_, err := tbl.Post(ctx, []map[string]any{{"name": "alice", "email": "alice@example.com"}}, false)
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	if err := tbl.Delete(ctx, nil); err != nil {
		t.Fatalf("delete all: %v", err)
	}

	remaining, err := tbl.Store.CountLines(tbl.Store.ColumnPath(schema.ColumnFileName("name", false)))
	if err != nil {
		t.Fatalf("count lines: %v", err)
	}
	assert.Equal(t, 0, remaining)
}
