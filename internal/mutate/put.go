package mutate

import (
	"context"
	"fmt"
	"time"

	"inibase/internal/codec"
	"inibase/internal/ierr"
	"inibase/internal/query"
	"inibase/internal/schema"
	"inibase/internal/store"
)

// Put implements spec.md §4.9's put pipeline: resolve where to a set of
// target line numbers (falling back to data's own opaque "id" when
// where is omitted), format and validate only the supplied keys, stamp
// updatedAt, and replace each touched column in place.
func (t *Table) Put(ctx context.Context, data map[string]any, where any, returnUpdated bool) ([]map[string]any, error) {
	lines, err := t.resolveTargetLines(where, data)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ierr.InvalidIDErr(fmt.Sprintf("%v", where))
	}

	fullLeaves := schema.Flatten(t.Schema)
	release, err := t.Store.Lock(ctx, lockKeyFor(fullLeaves))
	if err != nil {
		return nil, err
	}
	defer release()

	update := map[string]any{}
	for k, v := range data {
		if k == "id" {
			continue
		}
		update[k] = v
	}
	update["updatedAt"] = time.Now().UTC().Format(time.RFC3339)

	flat := flattenPartial(t.Schema, "", update)
	if err := schema.ValidateRecord(t.Schema, update, true); err != nil {
		return nil, err
	}
	touched := filterLeaves(fullLeaves, flat)
	if err := Format(touched, flat, t.Salt); err != nil {
		return nil, err
	}

	var pairs []store.RenamePair
	for _, pf := range touched {
		ft, _ := valueTypeOf(pf.Field)
		encoded := codec.Encode(flat[pf.Path], ft)
		changes := map[int]string{}
		for ln := range lines {
			changes[ln] = encoded
		}
		path := t.Store.ColumnPath(schema.ColumnFileName(pf.Path, t.Store.Compressed))
		pair, err := t.Store.Replace(path, changes)
		if err != nil {
			t.Store.AbortBatch(pairs)
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	if err := t.Store.RenameBatch(pairs); err != nil {
		return nil, err
	}
	if t.Cache {
		if err := t.Store.ClearCache(); err != nil {
			return nil, err
		}
	}

	if !returnUpdated {
		return nil, nil
	}
	lineList := make([]int, 0, len(lines))
	for ln := range lines {
		lineList = append(lineList, ln)
	}
	out, _, err := query.Get(t.Resolver(), nil, lineList, query.Options{Page: 1, PerPage: len(lineList)}, 0)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolveTargetLines implements spec.md §4.9 put's where-resolution:
// absent where falls back to data's own opaque id(s); with neither where
// nor data.id, every record in the table is the target (put stamps
// updatedAt on all of them); anything else (opaque id(s), line
// number(s), criteria object) goes through the same resolution Get uses.
func (t *Table) resolveTargetLines(where any, data map[string]any) (map[int]bool, error) {
	r := t.Resolver()
	if where == nil {
		idVal, ok := data["id"]
		if !ok {
			total, err := r.Total()
			if err != nil {
				return nil, err
			}
			out := make(map[int]bool, total)
			for ln := 1; ln <= total; ln++ {
				out[ln] = true
			}
			return out, nil
		}
		switch v := idVal.(type) {
		case string:
			where = v
		case []any:
			ss := make([]string, 0, len(v))
			for _, e := range v {
				if s, ok := e.(string); ok {
					ss = append(ss, s)
				}
			}
			where = ss
		case []string:
			where = v
		default:
			return nil, ierr.InvalidParametersErr("put id must be opaque string(s)")
		}
	}
	return query.ResolveLines(r, where, query.Options{})
}

func filterLeaves(leaves []schema.PathField, present map[string]any) []schema.PathField {
	out := make([]schema.PathField, 0, len(present))
	for _, pf := range leaves {
		if _, ok := present[pf.Path]; ok {
			out = append(out, pf)
		}
	}
	return out
}

// flattenPartial is flattenRecord without default-filling: only keys the
// caller actually supplied are flattened, since put must never stamp an
// unrelated column with a default value.
func flattenPartial(fields schema.Schema, prefix string, data map[string]any) map[string]any {
	out := map[string]any{}
	for _, f := range fields {
		v, present := data[f.Key]
		if !present {
			continue
		}
		path := prefix + f.Key
		switch {
		case f.IsObject():
			sub, _ := v.(map[string]any)
			for k, vv := range flattenPartial(f.Children, path+".", sub) {
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
