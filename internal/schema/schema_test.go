package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inibase/internal/codec"
)

func sampleFields() Schema {
	return Schema{
		{Key: "name", Type: []codec.FieldType{codec.TString}, Required: true},
		{Key: "email", Type: []codec.FieldType{codec.TEmail}, Unique: true},
		{Key: "address", Type: []codec.FieldType{codec.TObject}, Children: Schema{
			{Key: "city", Type: []codec.FieldType{codec.TString}},
		}},
	}
}

func TestWithImplicitFieldsAddsIDAndTimestamps(t *testing.T) {
	full := WithImplicitFields(sampleFields())
	assert.Equal(t, "id", full[0].Key)
	assert.Equal(t, IDFieldID, full[0].ID)
	assert.Equal(t, "createdAt", full[len(full)-2].Key)
	assert.Equal(t, "updatedAt", full[len(full)-1].Key)
}

func TestWithImplicitFieldsSkipsDeclaredID(t *testing.T) {
	fields := Schema{{Key: "id", Type: []codec.FieldType{codec.TID}}}
	full := WithImplicitFields(fields)
	count := 0
	for _, f := range full {
		if f.Key == "id" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAddIDsAssignsMonotonicIDs(t *testing.T) {
	full := WithImplicitFields(sampleFields())
	maxID := AddIDs(full, 0)
	seen := map[int]bool{}
	for _, pf := range Flatten(full) {
		assert.False(t, seen[pf.Field.ID], "duplicate id for %s", pf.Path)
		seen[pf.Field.ID] = true
	}
	assert.Equal(t, MaxID(full), maxID)
}

func TestFlattenDescendsIntoObjects(t *testing.T) {
	leaves := Flatten(sampleFields())
	paths := map[string]bool{}
	for _, pf := range leaves {
		paths[pf.Path] = true
	}
	assert.True(t, paths["name"])
	assert.True(t, paths["email"])
	assert.True(t, paths["address.city"])
}

func TestGetFieldResolvesDottedPath(t *testing.T) {
	f := GetField(sampleFields(), "address.city")
	if assert.NotNil(t, f) {
		assert.Equal(t, "city", f.Key)
	}
	assert.Nil(t, GetField(sampleFields(), "missing"))
}

func TestFilterIncludeAndExclude(t *testing.T) {
	fields := sampleFields()

	included := Filter(fields, []string{"name"})
	assert.Len(t, included, 1)
	assert.Equal(t, "name", included[0].Key)

	excluded := Filter(fields, []string{"!email"})
	keys := map[string]bool{}
	for _, f := range excluded {
		keys[f.Key] = true
	}
	assert.True(t, keys["name"])
	assert.False(t, keys["email"])
}

func TestDiffForMigrationDetectsRenameAndRemoval(t *testing.T) {
	old := Flatten(Schema{
		{ID: 1, Key: "user_name", Type: []codec.FieldType{codec.TString}},
		{ID: 2, Key: "age", Type: []codec.FieldType{codec.TNumber}},
	})
	next := Flatten(Schema{
		{Key: "display_name", Type: []codec.FieldType{codec.TString}},
	})

	renamed, _, removed := DiffForMigration(old, next)
	if assert.Len(t, renamed, 1) {
		assert.Equal(t, "user_name", renamed[0].OldPath)
		assert.Equal(t, "display_name", renamed[0].NewPath)
		assert.Equal(t, 1, renamed[0].OldID)
	}
	if assert.Len(t, removed, 1) {
		assert.Equal(t, "age", removed[0].Path)
	}
}
