package inibase

import (
	"fmt"
	"os"
	"path/filepath"

	"inibase/internal/ierr"
	"inibase/internal/schema"
	"inibase/internal/store"
)

// CreateTable implements spec.md §6's createTable: fails if the table
// directory already exists, otherwise lays down schema.json, the field
// id high-water marker, the config flag markers, and a zero pagination
// marker.
func (e *Engine) CreateTable(name string, fields schema.Schema, cfg TableConfig) error {
	dir := e.tableDir(name)
	if _, err := os.Stat(dir); err == nil {
		return ierr.TableExistsErr(name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("inibase: create table dir %s: %w", dir, err)
	}

	full := schema.WithImplicitFields(fields)
	maxID := schema.AddIDs(full, 0)

	st := store.New(dir, cfg.Compression, e.Log)
	if err := st.EnsureDirs(); err != nil {
		return err
	}
	if err := writeSchemaJSON(dir, full, e.Config.Salt); err != nil {
		return err
	}
	if err := writeSchemaIDMarker(dir, maxID); err != nil {
		return err
	}
	if err := writeTableConfig(dir, cfg); err != nil {
		return err
	}
	markerPath := filepath.Join(dir, "0-0.pagination")
	f, err := os.Create(markerPath)
	if err != nil {
		return fmt.Errorf("inibase: write pagination marker: %w", err)
	}
	f.Close()

	e.invalidate(name)
	return nil
}

// GetTable implements spec.md §6's getTable: returns the table's
// current schema and config flags.
func (e *Engine) GetTable(name string) (schema.Schema, TableConfig, error) {
	meta, err := e.loadTableMeta(name)
	if err != nil {
		return nil, TableConfig{}, err
	}
	return meta.Schema, meta.Config, nil
}

// UpdateTable implements spec.md §6's updateTable: diffs the old and
// new schema (renaming column files for fields that merely changed
// key), toggles compression by rewriting every file, flips prepend by
// reversing every file, and renames the table directory when
// cfg.Name is set.
func (e *Engine) UpdateTable(name string, newFields schema.Schema, cfg TableConfig) error {
	meta, err := e.loadTableMeta(name)
	if err != nil {
		return err
	}
	dir := meta.Dir
	oldSt := store.New(dir, meta.Config.Compression, e.Log)

	oldLeaves := schema.Flatten(meta.Schema)
	fullNew := schema.WithImplicitFields(newFields)
	newLeavesNoID := schema.Flatten(fullNew)

	renamed, _, removed := schema.DiffForMigration(oldLeaves, newLeavesNoID)

	// Carry forward ids for unchanged and renamed leaves; added leaves
	// are assigned fresh ids below.
	byOldPath := map[string]int{}
	for _, pf := range oldLeaves {
		byOldPath[pf.Path] = pf.Field.ID
	}
	for _, r := range renamed {
		byOldPath[r.NewPath] = r.OldID
	}
	assignIDsFromMap(fullNew, "", byOldPath)

	startingMaxID, err := readSchemaIDMarker(dir)
	if err != nil {
		return err
	}
	maxID := schema.AddIDs(fullNew, max(startingMaxID, schema.MaxID(fullNew)))

	for _, r := range renamed {
		oldPath := oldSt.ColumnPath(schema.ColumnFileName(r.OldPath, meta.Config.Compression))
		newPath := oldSt.ColumnPath(schema.ColumnFileName(r.NewPath, meta.Config.Compression))
		if oldPath == newPath {
			continue
		}
		if err := os.Rename(oldPath, newPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("inibase: rename column %s -> %s: %w", oldPath, newPath, err)
		}
	}
	for _, rm := range removed {
		path := oldSt.ColumnPath(schema.ColumnFileName(rm.Path, meta.Config.Compression))
		if err := oldSt.Delete(path); err != nil {
			return err
		}
	}

	if cfg.Compression != meta.Config.Compression {
		if err := rewriteCompression(dir, schema.Flatten(fullNew), meta.Config.Compression, cfg.Compression); err != nil {
			return err
		}
	}
	if cfg.Prepend != meta.Config.Prepend {
		newSt := store.New(dir, cfg.Compression, e.Log)
		if err := reverseAllColumns(newSt, schema.Flatten(fullNew)); err != nil {
			return err
		}
	}

	if err := writeSchemaJSON(dir, fullNew, e.Config.Salt); err != nil {
		return err
	}
	if err := writeSchemaIDMarker(dir, maxID); err != nil {
		return err
	}
	if err := writeTableConfig(dir, cfg); err != nil {
		return err
	}

	if cfg.Name != "" && cfg.Name != name {
		newDir := e.tableDir(cfg.Name)
		if err := os.Rename(dir, newDir); err != nil {
			return fmt.Errorf("inibase: rename table dir %s -> %s: %w", dir, newDir, err)
		}
		e.invalidate(name)
		e.invalidate(cfg.Name)
		return nil
	}

	e.invalidate(name)
	return nil
}

func assignIDsFromMap(fields schema.Schema, prefix string, byPath map[string]int) {
	for _, f := range fields {
		path := prefix + f.Key
		if f.Key != "id" {
			if id, ok := byPath[path]; ok {
				f.ID = id
			}
		}
		switch {
		case f.IsObject():
			assignIDsFromMap(f.Children, path+".", byPath)
		case f.IsArrayOfObjects():
			assignIDsFromMap(f.Children, path+".*.", byPath)
		}
	}
}

func rewriteCompression(dir string, leaves []schema.PathField, wasCompressed, nowCompressed bool) error {
	oldSt := store.New(dir, wasCompressed, nil)
	newSt := store.New(dir, nowCompressed, nil)
	for _, pf := range leaves {
		oldPath := oldSt.ColumnPath(schema.ColumnFileName(pf.Path, wasCompressed))
		lines, _, err := oldSt.Get(oldPath, nil, true)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			continue
		}
		ordered := make([]string, len(lines))
		for ln, v := range lines {
			if ln-1 < len(ordered) {
				ordered[ln-1] = v
			}
		}
		newPath := newSt.ColumnPath(schema.ColumnFileName(pf.Path, nowCompressed))
		pair, err := newSt.Replace(newPath, linesToMap(ordered))
		if err != nil {
			return err
		}
		if err := newSt.RenameBatch([]store.RenamePair{pair}); err != nil {
			return err
		}
		if oldPath != newPath {
			_ = oldSt.Delete(oldPath)
		}
	}
	return nil
}

func linesToMap(lines []string) map[int]string {
	out := make(map[int]string, len(lines))
	for i, v := range lines {
		out[i+1] = v
	}
	return out
}

func reverseAllColumns(st *store.Store, leaves []schema.PathField) error {
	for _, pf := range leaves {
		path := st.ColumnPath(schema.ColumnFileName(pf.Path, st.Compressed))
		lines, _, err := st.Get(path, nil, true)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			continue
		}
		ordered := make([]string, len(lines))
		for ln, v := range lines {
			if ln-1 < len(ordered) {
				ordered[ln-1] = v
			}
		}
		reversed := make([]string, len(ordered))
		for i, v := range ordered {
			reversed[len(ordered)-1-i] = v
		}
		pair, err := st.Replace(path, linesToMap(reversed))
		if err != nil {
			return err
		}
		if err := st.RenameBatch([]store.RenamePair{pair}); err != nil {
			return err
		}
	}
	return nil
}
