package mutate

import (
	"context"
	"fmt"
	"time"

	"inibase/internal/codec"
	"inibase/internal/ierr"
	"inibase/internal/query"
	"inibase/internal/schema"
	"inibase/internal/search"
	"inibase/internal/store"
)

// Post implements spec.md §4.9's post pipeline: validate, lock, assign
// ids and timestamps, enforce uniqueness, format, fan out to column
// files, and swap them in with one atomic rename batch.
func (t *Table) Post(ctx context.Context, records []map[string]any, returnPosted bool) ([]map[string]any, error) {
	if len(records) == 0 {
		return nil, nil
	}
	leaves := schema.Flatten(t.Schema)

	for _, rec := range records {
		if err := schema.ValidateRecord(t.Schema, rec, false); err != nil {
			return nil, err
		}
	}

	release, err := t.Store.Lock(ctx, lockKeyFor(leaves))
	if err != nil {
		return nil, err
	}
	defer release()

	marker, markerPath, err := ReadMarker(t.Dir)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	flatRows := make([]map[string]any, len(records))
	for i, rec := range records {
		marker.LastID++
		rec["id"] = marker.LastID
		rec["createdAt"] = now
		rec["updatedAt"] = nil
		flatRows[i] = flattenRecord(t.Schema, "", rec)
		if err := Format(leaves, flatRows[i], t.Salt); err != nil {
			return nil, err
		}
	}

	if err := t.enforceUnique(leaves, flatRows); err != nil {
		return nil, err
	}

	var pairs []store.RenamePair
	for _, pf := range leaves {
		ft, _ := valueTypeOf(pf.Field)
		lines := make([]string, len(flatRows))
		for i, row := range flatRows {
			lines[i] = codec.Encode(row[pf.Path], ft)
		}
		path := t.Store.ColumnPath(schema.ColumnFileName(pf.Path, t.Store.Compressed))
		var pair store.RenamePair
		var stageErr error
		if t.Prepend {
			pair, stageErr = t.Store.Prepend(path, lines)
		} else {
			pair, stageErr = t.Store.Append(path, lines)
		}
		if stageErr != nil {
			t.Store.AbortBatch(pairs)
			return nil, stageErr
		}
		pairs = append(pairs, pair)
	}
	if err := t.Store.RenameBatch(pairs); err != nil {
		return nil, err
	}

	marker.Total += len(records)
	if err := WriteMarker(t.Dir, markerPath, marker); err != nil {
		return nil, err
	}
	if t.Cache {
		if err := t.Store.ClearCache(); err != nil {
			return nil, err
		}
	}

	if !returnPosted {
		return nil, nil
	}
	lineNumbers := postedLineNumbers(marker.Total, len(records), t.Prepend)
	out, _, err := query.Get(t.Resolver(), nil, lineNumbers, query.Options{Page: 1, PerPage: len(records)}, 0)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Table) enforceUnique(leaves []schema.PathField, flatRows []map[string]any) error {
	for _, pf := range leaves {
		if !pf.Field.Unique {
			continue
		}
		vals := make([]any, 0, len(flatRows))
		for _, row := range flatRows {
			if v := row[pf.Path]; v != nil {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		ft, childType := valueTypeOf(pf.Field)
		path := t.Store.ColumnPath(schema.ColumnFileName(pf.Path, t.Store.Compressed))
		res, err := search.Column(t.Store, path, []search.Operator{search.In}, []any{vals}, search.And, ft, childType, t.Salt, search.Options{ReadWhole: true})
		if err != nil {
			return err
		}
		if len(res.Hits) > 0 {
			return ierr.FieldUniqueErr(pf.Path, fmt.Sprintf("%v", vals[0]))
		}
	}
	return nil
}
