// Package sqlitesrc introspects a SQLite table via PRAGMA statements,
// the same contract as importsql/mysqlsrc, grounded in the teacher's
// internal/introspect/sqlite package (which only stubs the interface —
// this fills it in for Inibase's narrower needs: a field schema plus
// the rows behind it).
package sqlitesrc

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"inibase/internal/codec"
	"inibase/internal/ierr"
	"inibase/internal/schema"
)

type columnInfo struct {
	name     string
	declType string
	notNull  bool
	pk       bool
}

// Import opens the SQLite database file at path, introspects tableName's
// columns and foreign keys via PRAGMA, and streams every row back for a
// subsequent bulk post.
func Import(ctx context.Context, path, tableName string) (schema.Schema, []map[string]any, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlitesrc: open %s: %w", path, err)
	}
	defer db.Close()

	cols, err := introspectColumns(ctx, db, tableName)
	if err != nil {
		return nil, nil, err
	}
	fkTargets, err := introspectForeignKeys(ctx, db, tableName)
	if err != nil {
		return nil, nil, err
	}

	fields, err := buildSchema(cols, fkTargets)
	if err != nil {
		return nil, nil, err
	}

	rows, err := streamRows(ctx, db, tableName, cols)
	if err != nil {
		return nil, nil, err
	}
	return fields, rows, nil
}

func introspectColumns(ctx context.Context, db *sql.DB, tableName string) ([]columnInfo, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, fmt.Errorf("sqlitesrc: introspect columns: %w", err)
	}
	defer rows.Close()

	var cols []columnInfo
	for rows.Next() {
		var cid int
		var name, declType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("sqlitesrc: scan column: %w", err)
		}
		cols = append(cols, columnInfo{name: name, declType: declType, notNull: notNull == 1, pk: pk > 0})
	}
	return cols, rows.Err()
}

func introspectForeignKeys(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, fmt.Errorf("sqlitesrc: introspect foreign keys: %w", err)
	}
	defer rows.Close()

	targets := map[string]string{}
	for rows.Next() {
		var id, seq int
		var refTable, from, to string
		var onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("sqlitesrc: scan foreign key: %w", err)
		}
		targets[from] = refTable
	}
	return targets, rows.Err()
}

func buildSchema(cols []columnInfo, fkTargets map[string]string) (schema.Schema, error) {
	var fields schema.Schema
	for _, c := range cols {
		if strings.EqualFold(c.name, "id") {
			continue
		}
		f := &schema.Field{Key: c.name, Required: c.notNull || c.pk}
		if table, ok := fkTargets[c.name]; ok {
			f.Type = []codec.FieldType{codec.TTable}
			f.Table = table
			fields = append(fields, f)
			continue
		}
		ft, err := mapDeclType(c.declType, c.name)
		if err != nil {
			return nil, err
		}
		f.Type = []codec.FieldType{ft}
		fields = append(fields, f)
	}
	return fields, nil
}

// mapDeclType follows SQLite's type affinity rules (a declared type is
// matched by substring, not exact name) the same way inibase's own
// codec.Detect infers a type from an untyped value.
func mapDeclType(declType, columnName string) (codec.FieldType, error) {
	t := strings.ToUpper(declType)
	switch {
	case t == "":
		return codec.TString, nil
	case strings.Contains(t, "BOOL"):
		return codec.TBoolean, nil
	case strings.Contains(t, "INT"):
		return codec.TNumber, nil
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"), strings.Contains(t, "DECIMAL"):
		return codec.TNumber, nil
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return codec.TDate, nil
	case strings.Contains(t, "JSON"):
		return codec.TJSON, nil
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), strings.Contains(t, "CLOB"):
		switch strings.ToLower(columnName) {
		case "email":
			return codec.TEmail, nil
		case "url":
			return codec.TURL, nil
		case "ip":
			return codec.TIP, nil
		default:
			return codec.TString, nil
		}
	default:
		return "", ierr.UnsupportedSQLTypeErr(declType)
	}
}

func streamRows(ctx context.Context, db *sql.DB, tableName string, cols []columnInfo) ([]map[string]any, error) {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoteAll(names), ", "), quoteIdent(tableName))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlitesrc: select rows: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		scanDest := make([]any, len(names))
		scanVals := make([]sql.NullString, len(names))
		for i := range scanDest {
			scanDest[i] = &scanVals[i]
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("sqlitesrc: scan row: %w", err)
		}
		rec := make(map[string]any, len(names))
		for i, name := range names {
			if scanVals[i].Valid {
				rec[name] = scanVals[i].String
			} else {
				rec[name] = nil
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func quoteIdent(name string) string { return `"` + name + `"` }

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}
