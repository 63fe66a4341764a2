package inibase

import (
	"context"

	"inibase/internal/mutate"
	"inibase/internal/query"
	"inibase/internal/schema"
	"inibase/internal/sortpipe"
	"inibase/internal/store"
)

// Options mirrors spec.md §6's options triple: page/perPage default to
// 1/15, columns supports "!col" exclusions, sort is handed to the sort
// pipeline when present.
type Options struct {
	Page    int
	PerPage int
	Columns []string
	Sort    any
}

func (e *Engine) tableForOps(name string) (*mutate.Table, *tableMeta, error) {
	meta, err := e.loadTableMeta(name)
	if err != nil {
		return nil, nil, err
	}
	t := &mutate.Table{
		Store:   e.storeFor(meta),
		Dir:     meta.Dir,
		Schema:  meta.Schema,
		Salt:    e.Config.Salt,
		Prepend: meta.Config.Prepend,
		Cache:   meta.Config.Cache,
	}
	return t, meta, nil
}

// Get implements spec.md §4.7/§6's get: resolves where into records,
// running the sort pipeline instead of the plain assembler when
// opts.Sort is set.
func (e *Engine) Get(name string, where any, opts Options) ([]map[string]any, query.PageInfo, error) {
	meta, err := e.loadTableMeta(name)
	if err != nil {
		return nil, query.PageInfo{}, err
	}
	r := e.resolverFor(meta)
	qopts := query.Options{Page: opts.Page, PerPage: opts.PerPage, Columns: opts.Columns}
	if opts.Sort != nil {
		return sortpipe.Run(r, e, where, opts.Sort, qopts, meta.Config.Cache, e.MaxJoinDepth)
	}
	return query.Get(r, e, where, qopts, e.MaxJoinDepth)
}

// GetOne is Get restricted to a single record, per spec.md §6's
// onlyOne flag.
func (e *Engine) GetOne(name string, where any, opts Options) (map[string]any, error) {
	opts.PerPage = 1
	opts.Page = 1
	recs, _, err := e.Get(name, where, opts)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// Post implements spec.md §4.9/§6's post.
func (e *Engine) Post(ctx context.Context, name string, records []map[string]any, returnPosted bool) ([]map[string]any, error) {
	t, meta, err := e.tableForOps(name)
	if err != nil {
		return nil, err
	}
	out, err := t.Post(ctx, records, returnPosted)
	if err == nil {
		e.invalidate(meta.Name)
	}
	return out, err
}

// Put implements spec.md §4.9/§6's put.
func (e *Engine) Put(ctx context.Context, name string, data map[string]any, where any, returnUpdated bool) ([]map[string]any, error) {
	t, meta, err := e.tableForOps(name)
	if err != nil {
		return nil, err
	}
	out, err := t.Put(ctx, data, where, returnUpdated)
	if err == nil {
		e.invalidate(meta.Name)
	}
	return out, err
}

// Delete implements spec.md §4.9/§6's delete.
func (e *Engine) Delete(ctx context.Context, name string, where any) error {
	t, meta, err := e.tableForOps(name)
	if err != nil {
		return err
	}
	err = t.Delete(ctx, where)
	if err == nil {
		e.invalidate(meta.Name)
	}
	return err
}

// Sum/Max/Min implement spec.md §6's aggregate forwarders onto the file
// engine, across one or more columns.
func (e *Engine) Sum(name string, cols []string) (map[string]float64, error) {
	return e.aggregate(name, cols, func(st *store.Store, path string) (float64, error) {
		return st.Sum(path)
	})
}

func (e *Engine) Max(name string, cols []string) (map[string]float64, error) {
	return e.aggregate(name, cols, func(st *store.Store, path string) (float64, error) {
		v, _, err := st.Max(path)
		return v, err
	})
}

func (e *Engine) Min(name string, cols []string) (map[string]float64, error) {
	return e.aggregate(name, cols, func(st *store.Store, path string) (float64, error) {
		v, _, err := st.Min(path)
		return v, err
	})
}

func (e *Engine) aggregate(name string, cols []string, fn func(*store.Store, string) (float64, error)) (map[string]float64, error) {
	meta, err := e.loadTableMeta(name)
	if err != nil {
		return nil, err
	}
	st := e.storeFor(meta)
	out := map[string]float64{}
	for _, col := range cols {
		f := schema.GetField(meta.Schema, col)
		if f == nil {
			continue
		}
		path := st.ColumnPath(schema.ColumnFileName(col, meta.Config.Compression))
		v, err := fn(st, path)
		if err != nil {
			return nil, err
		}
		out[col] = v
	}
	return out, nil
}

// ClearCache implements spec.md §6's clearCache: rm -rf .cache/ and
// recreate it.
func (e *Engine) ClearCache(name string) error {
	meta, err := e.loadTableMeta(name)
	if err != nil {
		return err
	}
	return e.storeFor(meta).ClearCache()
}
