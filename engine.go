// Package inibase is a serverless, file-based relational store built
// around a column-per-field, line-oriented on-disk layout: every table
// is a directory, every scalar field is a line-oriented text file, and
// nested documents are flattened into dotted/starred column paths (see
// DESIGN.md and SPEC_FULL.md). Engine owns one database root directory
// and the per-table metadata cache the teacher's own metadata cache
// (internal/core's in-memory Database tree) is modeled on.
package inibase

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"inibase/internal/config"
	"inibase/internal/ierr"
	"inibase/internal/query"
	"inibase/internal/schema"
	"inibase/internal/store"
)

// TableConfig holds the per-table flags set at createTable/updateTable
// time (spec.md §3's zero-byte marker files).
type TableConfig struct {
	Compression bool
	Cache       bool
	Prepend     bool
	Name        string // non-empty on updateTable requests a table rename
}

type tableMeta struct {
	Name   string
	Dir    string
	Schema schema.Schema
	Config TableConfig
}

// Engine owns one database root directory: its secret/defaults and an
// in-memory cache of every table's schema and config, invalidated on
// updateTable (spec.md §5's "In-memory tables metadata cache").
type Engine struct {
	Root         string
	Config       *config.Config
	Log          *zap.Logger
	MaxJoinDepth int

	mu     sync.Mutex
	tables map[string]*tableMeta
}

// Open loads (or initializes) the database root at root: resolving its
// secret/defaults via internal/config and priming an empty table cache.
func Open(root string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("inibase: create root %s: %w", root, err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	return &Engine{
		Root:         root,
		Config:       cfg,
		Log:          log,
		MaxJoinDepth: 5,
		tables:       map[string]*tableMeta{},
	}, nil
}

func (e *Engine) tableDir(name string) string {
	return filepath.Join(e.Root, name)
}

// Resolve implements query.TableResolver, letting the record assembler
// follow a table-typed field's join into another table of this engine.
func (e *Engine) Resolve(name string) (*query.Resolver, error) {
	meta, err := e.loadTableMeta(name)
	if err != nil {
		return nil, err
	}
	return e.resolverFor(meta), nil
}

func (e *Engine) resolverFor(meta *tableMeta) *query.Resolver {
	return &query.Resolver{Store: e.storeFor(meta), Schema: meta.Schema, Salt: e.Config.Salt}
}

func (e *Engine) loadTableMeta(name string) (*tableMeta, error) {
	e.mu.Lock()
	if m, ok := e.tables[name]; ok {
		e.mu.Unlock()
		return m, nil
	}
	e.mu.Unlock()

	dir := e.tableDir(name)
	if _, err := os.Stat(dir); err != nil {
		return nil, ierr.TableNotExistsErr(name)
	}
	fields, cfg, err := readSchemaFile(dir, e.Config.Salt)
	if err != nil {
		return nil, err
	}
	meta := &tableMeta{Name: name, Dir: dir, Schema: fields, Config: cfg}
	e.mu.Lock()
	e.tables[name] = meta
	e.mu.Unlock()
	return meta, nil
}

func (e *Engine) invalidate(name string) {
	e.mu.Lock()
	delete(e.tables, name)
	e.mu.Unlock()
}

func (e *Engine) storeFor(meta *tableMeta) *store.Store {
	return store.New(meta.Dir, meta.Config.Compression, e.Log)
}
