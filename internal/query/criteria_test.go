package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inibase/internal/codec"
	"inibase/internal/schema"
	"inibase/internal/store"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	s := store.New(t.TempDir(), false, nil)
	sc := schema.Schema{
		{Key: "id", Type: []codec.FieldType{codec.TID}, Required: true},
		{Key: "name", Type: []codec.FieldType{codec.TString}},
		{Key: "age", Type: []codec.FieldType{codec.TNumber}},
	}

	rows := []struct {
		id, name, age string
	}{
		{"1", "alice", "30"},
		{"2", "bob", "25"},
		{"3", "carol", "40"},
	}
	if err := s.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
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
	ids, names, ages := make([]string, len(rows)), make([]string, len(rows)), make([]string, len(rows))
	for i, r := range rows {
		ids[i], names[i], ages[i] = r.id, r.name, r.age
	}
	write(s.ColumnPath(schema.ColumnFileName("id", false)), ids)
	write(s.ColumnPath(schema.ColumnFileName("name", false)), names)
	write(s.ColumnPath(schema.ColumnFileName("age", false)), ages)

	return &Resolver{Store: s, Schema: sc}
}

func TestEvaluateLeafEqualityMatchesSingleLine(t *testing.T) {
	r := newTestResolver(t)
	set, err := Evaluate(r, map[string]any{"name": "bob"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assert.Equal(t, map[int]bool{2: true}, set)
}

func TestEvaluateImplicitAndAcrossSiblingKeys(t *testing.T) {
	r := newTestResolver(t)
	set, err := Evaluate(r, map[string]any{"name": "alice", "age": ">20"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assert.Equal(t, map[int]bool{1: true}, set)
}

func TestEvaluateOrUnionsAcrossSiblingKeys(t *testing.T) {
	r := newTestResolver(t)
	set, err := Evaluate(r, map[string]any{"or": map[string]any{
		"name": "alice",
		"age":  "25",
	}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assert.Equal(t, map[int]bool{1: true, 2: true}, set)
}

func TestEvaluateUnknownKeyMatchesNothing(t *testing.T) {
	r := newTestResolver(t)
	set, err := Evaluate(r, map[string]any{"missing": "x"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assert.Empty(t, set)
}

func newFavoriteFoodsResolver(t *testing.T) *Resolver {
	t.Helper()
	s := store.New(t.TempDir(), false, nil)
	sc := schema.Schema{
		{Key: "id", Type: []codec.FieldType{codec.TID}, Required: true},
		{Key: "favoriteFoods", Type: []codec.FieldType{codec.TArray}, ElementType: []codec.FieldType{codec.TString}},
	}
	if err := s.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
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
	write(s.ColumnPath(schema.ColumnFileName("favoriteFoods", false)), []string{"Pizza,Fries", "Salad,Soup", "Burger,Fries"})
	return &Resolver{Store: s, Schema: sc}
}

func TestEvaluateNotInExcludesRecordsContainingAnyMember(t *testing.T) {
	r := newFavoriteFoodsResolver(t)
	set, err := Evaluate(r, map[string]any{"favoriteFoods": "![]Pizza,Burger"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assert.Equal(t, map[int]bool{2: true}, set)
}

func TestEvaluateInMatchesRecordsContainingAnyMember(t *testing.T) {
	r := newFavoriteFoodsResolver(t)
	set, err := Evaluate(r, map[string]any{"favoriteFoods": "[]Pizza,Burger"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	assert.Equal(t, map[int]bool{1: true, 3: true}, set)
}
