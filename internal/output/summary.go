package output

import (
	"fmt"
	"strings"

	"inibase/internal/query"
	"inibase/internal/schema"
)

type summaryFormatter struct{}

// FormatRecords formats a result set as a compact summary.
// Example output:
//
//	Query Summary
//	=============
//	Records: 15
//	Page:    2/4 (total 57)
func (summaryFormatter) FormatRecords(records []map[string]any, page query.PageInfo) (string, error) {
	var sb strings.Builder
	sb.WriteString("Query Summary\n")
	sb.WriteString("=============\n")
	fmt.Fprintf(&sb, "Records: %d\n", len(records))
	fmt.Fprintf(&sb, "Page:    %d/%d (total %d)\n", page.Page, page.TotalPages, page.Total)
	return sb.String(), nil
}

// FormatSchema formats a table's schema as a compact summary: field
// count broken down by kind.
func (summaryFormatter) FormatSchema(table string, fields schema.Schema) (string, error) {
	leaves := schema.Flatten(fields)
	var required, unique, tables int
	for _, pf := range leaves {
		if pf.Field.Required {
			required++
		}
		if pf.Field.Unique {
			unique++
		}
		if pf.Field.Table != "" {
			tables++
		}
	}

	var sb strings.Builder
	sb.WriteString("Schema Summary\n")
	sb.WriteString("==============\n\n")
	fmt.Fprintf(&sb, "Table:    %s\n", table)
	fmt.Fprintf(&sb, "Fields:   %d\n", len(leaves))
	fmt.Fprintf(&sb, "Required: %d\n", required)
	fmt.Fprintf(&sb, "Unique:   %d\n", unique)
	fmt.Fprintf(&sb, "Joins:    %d\n", tables)
	return sb.String(), nil
}
