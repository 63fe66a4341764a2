// Package query implements the criteria evaluator (spec.md §4.6) and the
// record assembler (spec.md §4.7): turning a `where` clause into a
// line-number set, and turning a line-number set into assembled,
// nested, opaque-ID-bearing records.
package query

import (
	"inibase/internal/codec"
	"inibase/internal/icrypto"
	"inibase/internal/schema"
	"inibase/internal/search"
	"inibase/internal/store"
)

// Resolver bundles everything a single table needs to run a scan:
// where its column files live, its schema tree, and the opaque-ID salt.
type Resolver struct {
	Store  *store.Store
	Schema schema.Schema
	Salt   []byte
}

// TableResolver looks up another table's Resolver by name, for the
// table-field join handler in Get. The concrete implementation lives in
// the top-level Engine, which owns every table's Resolver.
type TableResolver interface {
	Resolve(tableName string) (*Resolver, error)
}

func (r *Resolver) columnPath(path string, f *schema.Field) string {
	fileName := schema.ColumnFileName(path, r.Store.Compressed)
	return r.Store.ColumnPath(fileName)
}

// Total returns the table's current record count, read from the id
// column's line count — by invariant P1 every column file (including
// id) has exactly pagination.total lines.
func (r *Resolver) Total() (int, error) {
	idField := schema.GetField(r.Schema, "id")
	if idField == nil {
		return 0, nil
	}
	return r.Store.CountLines(r.columnPath("id", idField))
}

// linesForIDs resolves opaque or raw integer record IDs to their
// current line numbers by scanning id.txt for a raw-int match — a
// record's line number can differ from its id once earlier records are
// deleted.
func (r *Resolver) linesForIDs(ids []int64) (map[int]bool, error) {
	idField := schema.GetField(r.Schema, "id")
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := map[int]bool{}
	_, err := r.Store.ForEachLine(r.columnPath("id", idField), func(lineNo int, raw string) bool {
		n, ok := codec.DecodeRawInt(raw)
		if ok && want[n] {
			out[lineNo] = true
			if len(out) >= len(want) {
				return true
			}
		}
		return false
	})
	return out, err
}

// DecodeOpaqueIDs decodes a list of opaque external IDs back to raw
// integers using the table's salt, dropping any that don't decode.
func (r *Resolver) DecodeOpaqueIDs(opaque []string) []int64 {
	out := make([]int64, 0, len(opaque))
	for _, o := range opaque {
		if n, ok := icrypto.DecodeID(o, r.Salt); ok {
			out = append(out, n)
		}
	}
	return out
}

func valueType(f *schema.Field) (codec.FieldType, codec.FieldType) {
	if f.IsArray() {
		return codec.TArray, f.ChildType()
	}
	return f.SoleType(), ""
}

func searchOptions(readWhole bool) search.Options {
	return search.Options{ReadWhole: readWhole}
}
