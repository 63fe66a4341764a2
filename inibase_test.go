package inibase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"inibase/internal/codec"
	"inibase/internal/schema"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	t.Setenv("INIBASE_SECRET", "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	e, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return e
}

func userSchema() schema.Schema {
	return schema.Schema{
		{Key: "name", Type: []codec.FieldType{codec.TString}, Required: true},
		{Key: "email", Type: []codec.FieldType{codec.TEmail}, Unique: true},
	}
}

func TestCreateTableThenGetTableRoundTripsSchema(t *testing.T) {
	e := openTestEngine(t)
	if err := e.CreateTable("users", userSchema(), TableConfig{}); err != nil {
		t.Fatalf("create table: %v", err)
	}

	fields, cfg, err := e.GetTable("users")
	if err != nil {
		t.Fatalf("get table: %v", err)
	}
	assert.False(t, cfg.Compression)
	assert.NotNil(t, schema.GetField(fields, "name"))
	assert.NotNil(t, schema.GetField(fields, "id"))
	assert.NotNil(t, schema.GetField(fields, "createdAt"))
}

func TestCreateTableTwiceFails(t *testing.T) {
	e := openTestEngine(t)
	if err := e.CreateTable("users", userSchema(), TableConfig{}); err != nil {
		t.Fatalf("create table: %v", err)
	}
	err := e.CreateTable("users", userSchema(), TableConfig{})
	assert.Error(t, err)
}

func TestPostGetPutDeleteRoundTrip(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	if err := e.CreateTable("users", userSchema(), TableConfig{}); err != nil {
		t.Fatalf("create table: %v", err)
	}

	posted, err := e.Post(ctx, "users", []map[string]any{
		{"name": "alice", "email": "alice@example.com"},
	}, true)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !assert.Len(t, posted, 1) {
		return
	}
	id := posted[0]["id"].(string)

	got, err := e.GetOne("users", id, Options{})
	if err != nil {
		t.Fatalf("get one: %v", err)
	}
	if assert.NotNil(t, got) {
		assert.Equal(t, "alice", got["name"])
	}

	updated, err := e.Put(ctx, "users", map[string]any{"id": id, "name": "alice2"}, nil, true)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if assert.Len(t, updated, 1) {
		assert.Equal(t, "alice2", updated[0]["name"])
	}

	if err := e.Delete(ctx, "users", map[string]any{"id": id}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	records, page, err := e.Get("users", nil, Options{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assert.Empty(t, records)
	assert.Equal(t, 0, page.Total)
}

func TestUpdateTableRenamesFieldAndPreservesData(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	original := schema.Schema{
		{Key: "user_name", Type: []codec.FieldType{codec.TString}, Required: true},
		{Key: "email", Type: []codec.FieldType{codec.TEmail}, Unique: true},
	}
	if err := e.CreateTable("users", original, TableConfig{}); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := e.Post(ctx, "users", []map[string]any{
		{"user_name": "alice", "email": "alice@example.com"},
	}, false); err != nil {
		t.Fatalf("post: %v", err)
	}

	renamed := schema.Schema{
		{Key: "display_name", Type: []codec.FieldType{codec.TString}, Required: true},
		{Key: "email", Type: []codec.FieldType{codec.TEmail}, Unique: true},
	}
	if err := e.UpdateTable("users", renamed, TableConfig{}); err != nil {
		t.Fatalf("update table: %v", err)
	}

	rec, err := e.GetOne("users", nil, Options{})
	if err != nil {
		t.Fatalf("get one: %v", err)
	}
	if assert.NotNil(t, rec) {
		assert.Equal(t, "alice", rec["display_name"])
	}
}

func TestSumMaxMinAggregateOverColumn(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	sc := schema.Schema{
		{Key: "age", Type: []codec.FieldType{codec.TNumber}},
	}
	if err := e.CreateTable("people", sc, TableConfig{}); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := e.Post(ctx, "people", []map[string]any{
		{"age": float64(10)}, {"age": float64(20)}, {"age": float64(30)},
	}, false); err != nil {
		t.Fatalf("post: %v", err)
	}

	sums, err := e.Sum("people", []string{"age"})
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	assert.Equal(t, float64(60), sums["age"])

	maxes, err := e.Max("people", []string{"age"})
	if err != nil {
		t.Fatalf("max: %v", err)
	}
	assert.Equal(t, float64(30), maxes["age"])

	mins, err := e.Min("people", []string{"age"})
	if err != nil {
		t.Fatalf("min: %v", err)
	}
	assert.Equal(t, float64(10), mins["age"])
}
