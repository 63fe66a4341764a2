package output

import (
	"encoding/json"

	"inibase/internal/query"
	"inibase/internal/schema"
)

type jsonFormatter struct{}

type recordsPayload struct {
	Format string           `json:"format"`
	Page   query.PageInfo   `json:"page"`
	Data   []map[string]any `json:"data"`
}

type schemaPayload struct {
	Format string        `json:"format"`
	Table  string        `json:"table"`
	Fields schema.Schema `json:"fields"`
}

func (jsonFormatter) FormatRecords(records []map[string]any, page query.PageInfo) (string, error) {
	return marshalJSON(recordsPayload{Format: string(FormatJSON), Page: page, Data: records})
}

func (jsonFormatter) FormatSchema(table string, fields schema.Schema) (string, error) {
	return marshalJSON(schemaPayload{Format: string(FormatJSON), Table: table, Fields: fields})
}

func marshalJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
