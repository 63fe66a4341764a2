// Package importsql builds Inibase schemas from an external SQL source:
// a raw DDL dump parsed with the same TiDB parser the teacher's own
// internal/parser/mysql package uses, or a live MySQL/SQLite connection
// introspected the way the teacher's internal/introspect/{mysql,sqlite}
// packages do. It is a migration-in tool only — it never writes back to
// the source database.
package importsql

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"inibase/internal/codec"
	"inibase/internal/ierr"
	"inibase/internal/schema"
)

// FromDDL parses one or more CREATE TABLE statements and returns one
// schema per table found, keyed by table name.
func FromDDL(sqlText string) (map[string]schema.Schema, error) {
	p := parser.New()
	stmtNodes, _, err := p.Parse(sqlText, "", "")
	if err != nil {
		return nil, fmt.Errorf("importsql: parse DDL: %w", err)
	}

	out := map[string]schema.Schema{}
	for _, stmt := range stmtNodes {
		create, ok := stmt.(*ast.CreateTableStmt)
		if !ok {
			continue
		}
		fields, err := convertCreateTable(create)
		if err != nil {
			return nil, err
		}
		out[create.Table.Name.O] = fields
	}
	return out, nil
}

func convertCreateTable(stmt *ast.CreateTableStmt) (schema.Schema, error) {
	fkTargets := foreignKeyTargets(stmt.Constraints)

	var fields schema.Schema
	for _, col := range stmt.Cols {
		f, err := convertColumn(col, fkTargets)
		if err != nil {
			return nil, err
		}
		if f != nil {
			fields = append(fields, f)
		}
	}
	applyTableConstraints(fields, stmt.Constraints)
	return fields, nil
}

func convertColumn(col *ast.ColumnDef, fkTargets map[string]string) (*schema.Field, error) {
	name := col.Name.Name.O
	if strings.EqualFold(name, "id") {
		return nil, nil
	}

	ft, err := mapSQLType(col.Tp.String(), name)
	if err != nil {
		return nil, err
	}

	f := &schema.Field{Key: name, Type: []codec.FieldType{ft}}
	if table, ok := fkTargets[name]; ok {
		f.Type = []codec.FieldType{codec.TTable}
		f.Table = table
	}

	for _, opt := range col.Options {
		switch opt.Tp {
		case ast.ColumnOptionNotNull, ast.ColumnOptionPrimaryKey:
			f.Required = true
		case ast.ColumnOptionUniqKey:
			f.Unique = true
		}
	}
	return f, nil
}

func foreignKeyTargets(constraints []*ast.Constraint) map[string]string {
	targets := map[string]string{}
	for _, c := range constraints {
		if c.Tp != ast.ConstraintForeignKey || c.Refer == nil || len(c.Keys) == 0 {
			continue
		}
		targets[c.Keys[0].Column.Name.O] = c.Refer.Table.Name.O
	}
	return targets
}

func applyTableConstraints(fields schema.Schema, constraints []*ast.Constraint) {
	byName := map[string]*schema.Field{}
	for _, f := range fields {
		byName[f.Key] = f
	}
	for _, c := range constraints {
		switch c.Tp {
		case ast.ConstraintPrimaryKey, ast.ConstraintUniq, ast.ConstraintUniqKey:
			for _, key := range c.Keys {
				if f, ok := byName[key.Column.Name.O]; ok {
					if c.Tp == ast.ConstraintPrimaryKey {
						f.Required = true
					} else {
						f.Unique = true
					}
				}
			}
		}
	}
}

// mapSQLType implements SPEC_FULL.md §4.11's fixed SQL-type-to-Inibase
// mapping: a column literally named email/url/ip narrows a string type
// to that semantic type.
func mapSQLType(sqlType, columnName string) (codec.FieldType, error) {
	t := strings.ToUpper(sqlType)
	switch {
	case strings.HasPrefix(t, "TINYINT(1)"), strings.HasPrefix(t, "BOOL"):
		return codec.TBoolean, nil
	case strings.HasPrefix(t, "INT"), strings.HasPrefix(t, "TINYINT"), strings.HasPrefix(t, "SMALLINT"),
		strings.HasPrefix(t, "MEDIUMINT"), strings.HasPrefix(t, "BIGINT"), strings.HasPrefix(t, "DECIMAL"), strings.HasPrefix(t, "FLOAT"),
		strings.HasPrefix(t, "DOUBLE"), strings.HasPrefix(t, "NUMERIC"):
		return codec.TNumber, nil
	case strings.HasPrefix(t, "DATE"), strings.HasPrefix(t, "TIMESTAMP"), strings.HasPrefix(t, "DATETIME"):
		return codec.TDate, nil
	case strings.HasPrefix(t, "JSON"):
		return codec.TJSON, nil
	case strings.HasPrefix(t, "VARCHAR"), strings.HasPrefix(t, "CHAR"), strings.HasPrefix(t, "TEXT"),
		strings.HasPrefix(t, "TINYTEXT"), strings.HasPrefix(t, "MEDIUMTEXT"), strings.HasPrefix(t, "LONGTEXT"):
		return narrowStringType(columnName), nil
	default:
		return "", ierr.UnsupportedSQLTypeErr(sqlType)
	}
}

func narrowStringType(columnName string) codec.FieldType {
	switch strings.ToLower(columnName) {
	case "email":
		return codec.TEmail
	case "url":
		return codec.TURL
	case "ip":
		return codec.TIP
	default:
		return codec.TString
	}
}
