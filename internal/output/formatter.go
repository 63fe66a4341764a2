// Package output formats query results and table schemas for the CLI.
// It keeps the teacher's own output shape — a small Formatter interface
// dispatched on a format name string — but retargets it from SQL schema
// diffs onto Inibase records and schemas.
package output

import (
	"fmt"
	"strings"

	"inibase/internal/query"
	"inibase/internal/schema"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatTable   Format = "table"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// Formatter formats query results and schemas for display.
type Formatter interface {
	FormatRecords(records []map[string]any, page query.PageInfo) (string, error)
	FormatSchema(table string, fields schema.Schema) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to table format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatTable:
		return tableFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'table', 'json', or 'summary'", name)
	}
}
