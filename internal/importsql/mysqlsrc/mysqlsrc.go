// Package mysqlsrc introspects a live MySQL table over database/sql,
// adapted from the teacher's internal/introspect/mysql package: the same
// INFORMATION_SCHEMA queries, pointed at columns and foreign keys instead
// of the teacher's full table/index/constraint tree, since Inibase only
// needs a field schema and the row data behind it.
package mysqlsrc

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"inibase/internal/codec"
	"inibase/internal/ierr"
	"inibase/internal/schema"
)

type columnInfo struct {
	name     string
	dataType string
	nullable bool
	colKey   string
}

// Import opens dsn, introspects tableName's columns and foreign keys,
// and streams every row back for a subsequent bulk post.
func Import(ctx context.Context, dsn, tableName string) (schema.Schema, []map[string]any, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("mysqlsrc: open %s: %w", tableName, err)
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
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_key
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("mysqlsrc: introspect columns: %w", err)
	}
	defer rows.Close()

	var cols []columnInfo
	for rows.Next() {
		var c columnInfo
		var nullable string
		if err := rows.Scan(&c.name, &c.dataType, &nullable, &c.colKey); err != nil {
			return nil, fmt.Errorf("mysqlsrc: scan column: %w", err)
		}
		c.nullable = nullable == "YES"
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func introspectForeignKeys(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, referenced_table_name
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("mysqlsrc: introspect foreign keys: %w", err)
	}
	defer rows.Close()

	targets := map[string]string{}
	for rows.Next() {
		var col, ref string
		if err := rows.Scan(&col, &ref); err != nil {
			return nil, fmt.Errorf("mysqlsrc: scan foreign key: %w", err)
		}
		targets[col] = ref
	}
	return targets, rows.Err()
}

func buildSchema(cols []columnInfo, fkTargets map[string]string) (schema.Schema, error) {
	var fields schema.Schema
	for _, c := range cols {
		if strings.EqualFold(c.name, "id") {
			continue
		}
		f := &schema.Field{Key: c.name, Required: !c.nullable, Unique: c.colKey == "UNI"}
		if c.colKey == "PRI" {
			f.Required = true
		}
		if table, ok := fkTargets[c.name]; ok {
			f.Type = []codec.FieldType{codec.TTable}
			f.Table = table
			fields = append(fields, f)
			continue
		}
		ft, err := mapDataType(c.dataType, c.name)
		if err != nil {
			return nil, err
		}
		f.Type = []codec.FieldType{ft}
		fields = append(fields, f)
	}
	return fields, nil
}

func mapDataType(dataType, columnName string) (codec.FieldType, error) {
	switch strings.ToLower(dataType) {
	case "tinyint":
		return codec.TBoolean, nil
	case "int", "integer", "smallint", "mediumint", "bigint", "decimal", "float", "double", "numeric":
		return codec.TNumber, nil
	case "date", "datetime", "timestamp", "time", "year":
		return codec.TDate, nil
	case "json":
		return codec.TJSON, nil
	case "varchar", "char", "text", "tinytext", "mediumtext", "longtext":
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
		return "", ierr.UnsupportedSQLTypeErr(dataType)
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
		return nil, fmt.Errorf("mysqlsrc: select rows: %w", err)
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
			return nil, fmt.Errorf("mysqlsrc: scan row: %w", err)
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

func quoteIdent(name string) string { return "`" + name + "`" }

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}
