package output

import (
	"fmt"
	"sort"
	"strings"

	"inibase/internal/query"
	"inibase/internal/schema"
)

type tableFormatter struct{}

// FormatRecords renders records as a simple fixed-width text table, one
// row per record, columns taken from the union of top-level keys across
// all records (sorted, "id" first when present).
func (tableFormatter) FormatRecords(records []map[string]any, page query.PageInfo) (string, error) {
	if len(records) == 0 {
		return "(no records)\n", nil
	}

	cols := recordColumns(records)
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = cellString(rec[c])
			if len(row[j]) > widths[j] {
				widths[j] = len(row[j])
			}
		}
		rows[i] = row
	}

	var sb strings.Builder
	writeRow(&sb, cols, widths)
	writeSeparator(&sb, widths)
	for _, row := range rows {
		writeRow(&sb, row, widths)
	}
	fmt.Fprintf(&sb, "\n%d record(s), page %d/%d (total %d)\n", len(records), page.Page, page.TotalPages, page.Total)
	return sb.String(), nil
}

// FormatSchema renders a table's field tree indented by nesting depth.
func (tableFormatter) FormatSchema(table string, fields schema.Schema) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "table: %s\n", table)
	writeFields(&sb, fields, 1)
	return sb.String(), nil
}

func writeFields(sb *strings.Builder, fields schema.Schema, depth int) {
	for _, f := range fields {
		indent := strings.Repeat("  ", depth)
		flags := ""
		if f.Required {
			flags += " required"
		}
		if f.Unique {
			flags += " unique"
		}
		if f.Table != "" {
			flags += " -> " + f.Table
		}
		fmt.Fprintf(sb, "%s%s (%d) %v%s\n", indent, f.Key, f.ID, f.Type, flags)
		if len(f.Children) > 0 {
			writeFields(sb, f.Children, depth+1)
		}
	}
}

func recordColumns(records []map[string]any) []string {
	set := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			set[k] = true
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		if k != "id" {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	if set["id"] {
		cols = append([]string{"id"}, cols...)
	}
	return cols
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func writeRow(sb *strings.Builder, cells []string, widths []int) {
	for i, c := range cells {
		fmt.Fprintf(sb, "%-*s  ", widths[i], c)
	}
	sb.WriteString("\n")
}

func writeSeparator(sb *strings.Builder, widths []int) {
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w))
		sb.WriteString("  ")
	}
	sb.WriteString("\n")
}
