package mutate

import (
	"context"

	"inibase/internal/query"
	"inibase/internal/schema"
	"inibase/internal/store"
)

// Delete implements spec.md §4.9's delete pipeline: without a where, it
// unlinks every column file outright; with one, it resolves the target
// lines and either removes just those lines or, if that would empty the
// table, takes the unlink-everything path anyway.
func (t *Table) Delete(ctx context.Context, where any) error {
	leaves := schema.Flatten(t.Schema)
	release, err := t.Store.Lock(ctx, lockKeyFor(leaves))
	if err != nil {
		return err
	}
	defer release()

	marker, markerPath, err := ReadMarker(t.Dir)
	if err != nil {
		return err
	}

	if where == nil {
		return t.deleteAll(leaves, markerPath, marker)
	}

	lines, err := query.ResolveLines(t.Resolver(), where, query.Options{})
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	if len(lines) >= marker.Total {
		return t.deleteAll(leaves, markerPath, marker)
	}

	var pairs []store.RenamePair
	for _, pf := range leaves {
		path := t.Store.ColumnPath(schema.ColumnFileName(pf.Path, t.Store.Compressed))
		pair, err := t.Store.Remove(path, lines)
		if err != nil {
			t.Store.AbortBatch(pairs)
			return err
		}
		pairs = append(pairs, pair)
	}
	if err := t.Store.RenameBatch(pairs); err != nil {
		return err
	}
	marker.Total -= len(lines)
	if err := WriteMarker(t.Dir, markerPath, marker); err != nil {
		return err
	}
	if t.Cache {
		return t.Store.ClearCache()
	}
	return nil
}

func (t *Table) deleteAll(leaves []schema.PathField, markerPath string, marker Marker) error {
	for _, pf := range leaves {
		path := t.Store.ColumnPath(schema.ColumnFileName(pf.Path, t.Store.Compressed))
		if err := t.Store.Delete(path); err != nil {
			return err
		}
	}
	marker.Total = 0
	if err := WriteMarker(t.Dir, markerPath, marker); err != nil {
		return err
	}
	if t.Cache {
		return t.Store.ClearCache()
	}
	return nil
}
