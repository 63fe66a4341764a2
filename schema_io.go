package inibase

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"inibase/internal/codec"
	"inibase/internal/icrypto"
	"inibase/internal/schema"
)

// wireField is schema.json's on-disk shape: field ids are the opaque
// encrypted form, per spec.md §6 ("field IDs are the encrypted opaque
// form"), so a dump of schema.json never leaks the raw monotonic
// counter to a reader who only has filesystem access.
type wireField struct {
	ID          string            `json:"id"`
	Key         string            `json:"key"`
	Type        []codec.FieldType `json:"type"`
	Required    bool              `json:"required,omitempty"`
	Unique      bool              `json:"unique,omitempty"`
	Table       string            `json:"table,omitempty"`
	Children    []wireField       `json:"children,omitempty"`
	ElementType []codec.FieldType `json:"elementType,omitempty"`
}

func toWire(f *schema.Field, salt []byte) wireField {
	w := wireField{
		Key: f.Key, Type: f.Type, Required: f.Required, Unique: f.Unique,
		Table: f.Table, ElementType: f.ElementType,
	}
	if f.Key == "id" {
		w.ID = "0"
	} else {
		w.ID = icrypto.EncodeID(int64(f.ID), salt)
	}
	for _, c := range f.Children {
		w.Children = append(w.Children, toWire(c, salt))
	}
	return w
}

func fromWire(w wireField, salt []byte) *schema.Field {
	f := &schema.Field{
		Key: w.Key, Type: w.Type, Required: w.Required, Unique: w.Unique,
		Table: w.Table, ElementType: w.ElementType,
	}
	if w.Key == "id" {
		f.ID = schema.IDFieldID
	} else if n, ok := icrypto.DecodeID(w.ID, salt); ok {
		f.ID = int(n)
	}
	for _, c := range w.Children {
		f.Children = append(f.Children, fromWire(c, salt))
	}
	return f
}

func schemaJSONPath(dir string) string { return filepath.Join(dir, "schema.json") }

func writeSchemaJSON(dir string, fields schema.Schema, salt []byte) error {
	wire := make([]wireField, len(fields))
	for i, f := range fields {
		wire[i] = toWire(f, salt)
	}
	b, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("inibase: marshal schema.json: %w", err)
	}
	if err := os.WriteFile(schemaJSONPath(dir), b, 0o644); err != nil {
		return fmt.Errorf("inibase: write schema.json: %w", err)
	}
	return nil
}

func readSchemaJSON(dir string, salt []byte) (schema.Schema, error) {
	b, err := os.ReadFile(schemaJSONPath(dir))
	if err != nil {
		return nil, fmt.Errorf("inibase: read schema.json: %w", err)
	}
	var wire []wireField
	if err := json.Unmarshal(b, &wire); err != nil {
		return nil, fmt.Errorf("inibase: parse schema.json: %w", err)
	}
	out := make(schema.Schema, len(wire))
	for i, w := range wire {
		out[i] = fromWire(w, salt)
	}
	return out, nil
}

// writeSchemaIDMarker rewrites the zero-byte "<N>.schema" high-water
// marker, removing any stale marker with a different N first.
func writeSchemaIDMarker(dir string, maxID int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("inibase: read %s: %w", dir, err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".schema") && e.Name() != fmt.Sprintf("%d.schema", maxID) {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%d.schema", maxID)))
	if err != nil {
		return fmt.Errorf("inibase: write schema marker: %w", err)
	}
	return f.Close()
}

func readSchemaIDMarker(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("inibase: read %s: %w", dir, err)
	}
	for _, e := range entries {
		if n, ok := strings.CutSuffix(e.Name(), ".schema"); ok {
			if v, err := strconv.Atoi(n); err == nil {
				return v, nil
			}
		}
	}
	return 0, nil
}

const (
	compressionMarker = ".compression.config"
	cacheMarker       = ".cache.config"
	prependMarker     = ".prepend.config"
)

func readTableConfig(dir string) TableConfig {
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(dir, name))
		return err == nil
	}
	return TableConfig{
		Compression: exists(compressionMarker),
		Cache:       exists(cacheMarker),
		Prepend:     exists(prependMarker),
	}
}

func writeTableConfig(dir string, cfg TableConfig) error {
	set := func(name string, on bool) error {
		path := filepath.Join(dir, name)
		if on {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("inibase: write %s: %w", path, err)
			}
			return f.Close()
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("inibase: remove %s: %w", path, err)
		}
		return nil
	}
	if err := set(compressionMarker, cfg.Compression); err != nil {
		return err
	}
	if err := set(cacheMarker, cfg.Cache); err != nil {
		return err
	}
	return set(prependMarker, cfg.Prepend)
}

func readSchemaFile(dir string, salt []byte) (schema.Schema, TableConfig, error) {
	fields, err := readSchemaJSON(dir, salt)
	if err != nil {
		return nil, TableConfig{}, err
	}
	return fields, readTableConfig(dir), nil
}
