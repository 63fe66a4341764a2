// Package schema holds the typed field tree that describes one Inibase
// table: a recursive structure of Field nodes carrying a stable numeric
// id, a dotted key, a type (or union of types), and — for object and
// array-of-object fields — a nested Children schema, adapted from the
// recursive Database/Table/Column tree the teacher's internal/core
// package builds for SQL schemas, but reshaped around Inibase's
// id-stable, path-addressable column model (spec.md §3–§4.3).
package schema

import (
	"sort"
	"strings"

	"inibase/internal/codec"
)

// Field is one node of a table's schema tree.
type Field struct {
	ID       int               `json:"id"`
	Key      string            `json:"key"`
	Type     []codec.FieldType `json:"type"`
	Required bool              `json:"required,omitempty"`
	Unique   bool              `json:"unique,omitempty"`
	Table    string            `json:"table,omitempty"`
	RawType  *string           `json:"rawType,omitempty"`

	// Children holds the nested schema for an object field, or for an
	// array field whose elements are themselves objects.
	Children []*Field `json:"children,omitempty"`

	// ElementType holds the declared element type(s) of an
	// array-of-scalars field (a union resolved per-value via
	// codec.Detect). Unused when Children is set.
	ElementType []codec.FieldType `json:"elementType,omitempty"`
}

// Schema is the ordered list of top-level fields for one table.
type Schema []*Field

// IsUnion reports whether f declares more than one candidate type,
// requiring per-value detection to resolve a concrete type.
func (f *Field) IsUnion() bool { return len(f.Type) > 1 }

// SoleType returns f's only declared type; callers must not call this on
// a union field (check IsUnion first).
func (f *Field) SoleType() codec.FieldType {
	if len(f.Type) == 0 {
		return codec.TString
	}
	return f.Type[0]
}

// HasType reports whether t is one of f's declared candidate types.
func (f *Field) HasType(t codec.FieldType) bool {
	for _, ft := range f.Type {
		if ft == t {
			return true
		}
	}
	return false
}

// IsObject reports whether f is a plain nested-object field.
func (f *Field) IsObject() bool {
	return len(f.Type) == 1 && f.Type[0] == codec.TObject
}

// IsArray reports whether f is an array field (of scalars, of a single
// table reference, or of nested objects).
func (f *Field) IsArray() bool {
	return len(f.Type) == 1 && f.Type[0] == codec.TArray
}

// IsArrayOfObjects reports whether f is an array whose elements are
// objects, i.e. it owns a nested Children schema rather than a scalar
// child type.
func (f *Field) IsArrayOfObjects() bool {
	return f.IsArray() && len(f.Children) > 0
}

// ChildType returns the scalar element type declared for f, when f is an
// array-of-scalars field.
func (f *Field) ChildType() codec.FieldType {
	if len(f.ElementType) == 0 {
		return codec.TString
	}
	return f.ElementType[0]
}

// IDFieldID is the reserved, never-reassigned field id of the implicit
// "id" column.
const IDFieldID = 0

// WithImplicitFields returns a copy of fields with the engine-managed
// id/createdAt/updatedAt fields prepended/appended, unless the caller
// already declared one of those keys explicitly.
func WithImplicitFields(fields Schema) Schema {
	out := make(Schema, 0, len(fields)+3)
	hasID, hasCreated, hasUpdated := false, false, false
	for _, f := range fields {
		switch f.Key {
		case "id":
			hasID = true
		case "createdAt":
			hasCreated = true
		case "updatedAt":
			hasUpdated = true
		}
	}
	if !hasID {
		out = append(out, &Field{ID: IDFieldID, Key: "id", Type: []codec.FieldType{codec.TID}, Required: true})
	}
	out = append(out, fields...)
	if !hasCreated {
		out = append(out, &Field{Key: "createdAt", Type: []codec.FieldType{codec.TDate}})
	}
	if !hasUpdated {
		out = append(out, &Field{Key: "updatedAt", Type: []codec.FieldType{codec.TDate}})
	}
	return out
}

// Flatten walks the schema tree depth-first and returns every scalar
// leaf field (i.e. every field that owns a column file) paired with its
// fully-qualified column path, as used for sorting and uniqueness checks
// (spec.md §4.3 "flatten/filter").
func Flatten(fields Schema) []PathField {
	var out []PathField
	walk(fields, "", &out)
	return out
}

// PathField pairs a resolved column path with the Field that owns it.
type PathField struct {
	Path  string
	Field *Field
}

func walk(fields Schema, prefix string, out *[]PathField) {
	for _, f := range fields {
		path := prefix + f.Key
		switch {
		case f.IsObject():
			walk(f.Children, path+".", out)
		case f.IsArrayOfObjects():
			walk(f.Children, path+".*.", out)
		default:
			*out = append(*out, PathField{Path: path, Field: f})
		}
	}
}

// Filter returns a copy of fields containing only the keys named in
// columns (dotted sub-selections are matched by prefix), or, when a
// column is prefixed with "!", every field except that one. An empty
// columns list returns fields unchanged.
func Filter(fields Schema, columns []string) Schema {
	if len(columns) == 0 {
		return fields
	}
	include := map[string]bool{}
	exclude := map[string]bool{}
	for _, c := range columns {
		if strings.HasPrefix(c, "!") {
			exclude[strings.TrimPrefix(c, "!")] = true
		} else {
			include[c] = true
		}
	}
	return filterFields(fields, "", include, exclude, len(include) > 0)
}

func filterFields(fields Schema, prefix string, include, exclude map[string]bool, useInclude bool) Schema {
	out := make(Schema, 0, len(fields))
	for _, f := range fields {
		path := prefix + f.Key
		if exclude[path] {
			continue
		}
		if useInclude && !include[path] && !hasPrefixMatch(include, path) {
			if len(f.Children) == 0 {
				continue
			}
		}
		cp := *f
		if len(f.Children) > 0 {
			sep := "."
			if f.IsArrayOfObjects() {
				sep = ".*."
			}
			cp.Children = filterFields(f.Children, path+sep, include, exclude, useInclude)
			if useInclude && len(cp.Children) == 0 && !include[path] {
				continue
			}
		} else if useInclude && !include[path] {
			continue
		}
		out = append(out, &cp)
	}
	return out
}

func hasPrefixMatch(include map[string]bool, path string) bool {
	for k := range include {
		if strings.HasPrefix(k, path+".") {
			return true
		}
	}
	return false
}

// GetField resolves a dotted path (with implicit ".*." hops through
// array-of-object ancestors) to the Field that owns it.
func GetField(fields Schema, path string) *Field {
	segments := strings.Split(path, ".")
	return resolve(fields, segments)
}

func resolve(fields Schema, segments []string) *Field {
	if len(segments) == 0 {
		return nil
	}
	key := segments[0]
	if key == "*" {
		return resolve(fields, segments[1:])
	}
	for _, f := range fields {
		if f.Key != key {
			continue
		}
		if len(segments) == 1 {
			return f
		}
		return resolve(f.Children, segments[1:])
	}
	return nil
}

// SortedByID returns a copy of fields sorted by Field.ID, useful for
// deterministic schema.json output.
func SortedByID(fields Schema) Schema {
	out := make(Schema, len(fields))
	copy(out, fields)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
