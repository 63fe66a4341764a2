package output

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inibase/internal/codec"
	"inibase/internal/query"
	"inibase/internal/schema"
)

func sampleRecords() []map[string]any {
	return []map[string]any{
		{"id": "a1", "name": "alice"},
		{"id": "b2", "name": "bob"},
	}
}

func samplePage() query.PageInfo {
	return query.PageInfo{Page: 1, PerPage: 15, Total: 2, TotalPages: 1}
}

func sampleSchema() schema.Schema {
	return schema.Schema{
		{ID: 1, Key: "name", Type: []codec.FieldType{codec.TString}, Required: true},
		{ID: 2, Key: "email", Type: []codec.FieldType{codec.TEmail}, Unique: true},
	}
}

func TestNewFormatterDispatchesByName(t *testing.T) {
	for _, name := range []string{"", "table", "TABLE", "json", "summary"} {
		f, err := NewFormatter(name)
		if err != nil {
			t.Fatalf("new formatter %q: %v", name, err)
		}
		assert.NotNil(t, f)
	}

	_, err := NewFormatter("xml")
	assert.Error(t, err)
}

func TestTableFormatterRendersRecordsAndSchema(t *testing.T) {
	f, _ := NewFormatter("table")
	out, err := f.FormatRecords(sampleRecords(), samplePage())
	if err != nil {
		t.Fatalf("format records: %v", err)
	}
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "2 record(s)")

	out, err = f.FormatSchema("users", sampleSchema())
	if err != nil {
		t.Fatalf("format schema: %v", err)
	}
	assert.Contains(t, out, "table: users")
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "required")
	assert.Contains(t, out, "unique")
}

func TestTableFormatterHandlesNoRecords(t *testing.T) {
	f, _ := NewFormatter("table")
	out, err := f.FormatRecords(nil, samplePage())
	if err != nil {
		t.Fatalf("format records: %v", err)
	}
	assert.Equal(t, "(no records)\n", out)
}

func TestJSONFormatterRoundtripsRecordsAndSchema(t *testing.T) {
	f, _ := NewFormatter("json")
	out, err := f.FormatRecords(sampleRecords(), samplePage())
	if err != nil {
		t.Fatalf("format records: %v", err)
	}
	assert.Contains(t, out, `"format": "json"`)
	assert.Contains(t, out, `"alice"`)

	out, err = f.FormatSchema("users", sampleSchema())
	if err != nil {
		t.Fatalf("format schema: %v", err)
	}
	assert.Contains(t, out, `"table": "users"`)
}

func TestSummaryFormatterCountsFieldsByKind(t *testing.T) {
	f, _ := NewFormatter("summary")
	out, err := f.FormatRecords(sampleRecords(), samplePage())
	if err != nil {
		t.Fatalf("format records: %v", err)
	}
	assert.Contains(t, out, "Records: 2")

	out, err = f.FormatSchema("users", sampleSchema())
	if err != nil {
		t.Fatalf("format schema: %v", err)
	}
	assert.Contains(t, out, "Fields:   2")
	assert.Contains(t, out, "Required: 1")
	assert.Contains(t, out, "Unique:   1")
}
