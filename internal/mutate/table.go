package mutate

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"

	"inibase/internal/codec"
	"inibase/internal/query"
	"inibase/internal/schema"
	"inibase/internal/store"
)

// Table bundles everything the mutation pipeline needs for one table:
// its file store, schema, opaque-id salt and the per-table config flags
// that change how post/put behave (spec.md §4.9, §6).
type Table struct {
	Store   *store.Store
	Dir     string
	Schema  schema.Schema
	Salt    []byte
	Prepend bool
	Cache   bool
}

// Resolver returns a query.Resolver over this table, for Get/criteria
// evaluation shared with the read path.
func (t *Table) Resolver() *query.Resolver {
	return &query.Resolver{Store: t.Store, Schema: t.Schema, Salt: t.Salt}
}

func valueTypeOf(f *schema.Field) (codec.FieldType, codec.FieldType) {
	if f.IsArray() {
		return codec.TArray, f.ChildType()
	}
	return f.SoleType(), ""
}

// lockKeyFor derives the named-lock key from the sorted set of column
// paths a mutation touches, per spec.md §4.4's "lock key is derived
// from the hash of the column-path set being mutated".
func lockKeyFor(leaves []schema.PathField) string {
	paths := make([]string, len(leaves))
	for i, pf := range leaves {
		paths[i] = pf.Path
	}
	sort.Strings(paths)
	sum := sha1.Sum([]byte(strings.Join(paths, ",")))
	return hex.EncodeToString(sum[:])
}

func postedLineNumbers(total, n int, prepend bool) []int {
	out := make([]int, n)
	if prepend {
		for i := 0; i < n; i++ {
			out[i] = i + 1
		}
		return out
	}
	start := total - n + 1
	for i := 0; i < n; i++ {
		out[i] = start + i
	}
	return out
}

func lookupPath(m map[string]any, path string) any {
	if m == nil {
		return nil
	}
	var cur any = m
	for _, seg := range strings.Split(path, ".") {
		cm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = cm[seg]
	}
	return cur
}

// flattenRecord turns one nested input record into a flat map keyed by
// the same dotted/starred column paths schema.Flatten produces, filling
// any absent field with its declared default (spec.md §4.3's
// getDefaultValue, applied at write time rather than read time).
// Array-of-object leaves collect one array per child column, aligned
// across the record's array items, ready for codec.Encode(_, TArray).
func flattenRecord(fields schema.Schema, prefix string, data map[string]any) map[string]any {
	out := map[string]any{}
	for _, f := range fields {
		path := prefix + f.Key
		v, present := data[f.Key]
		if !present || v == nil {
			v = schema.DefaultValue(f)
		}
		switch {
		case f.IsObject():
			sub, _ := v.(map[string]any)
			for k, vv := range flattenRecord(f.Children, path+".", sub) {
				out[k] = vv
			}
		case f.IsArrayOfObjects():
			items, _ := v.([]any)
			for _, leaf := range schema.Flatten(f.Children) {
				arr := make([]any, len(items))
				for i, item := range items {
					m, _ := item.(map[string]any)
					arr[i] = lookupPath(m, leaf.Path)
				}
				out[path+".*."+leaf.Path] = arr
			}
		default:
			out[path] = v
		}
	}
	return out
}
