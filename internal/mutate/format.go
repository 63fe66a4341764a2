package mutate

import (
	"encoding/json"

	"inibase/internal/codec"
	"inibase/internal/icrypto"
	"inibase/internal/schema"
)

// Format applies spec.md §4.9 step 5 in place on a flat leaf-path ->
// value map: password fields are hashed, table/id fields holding an
// opaque string are decoded to their raw integer, and json fields are
// stringified. Unions are resolved to a concrete type first via
// codec.Detect so the right formatting rule applies.
func Format(fields []schema.PathField, values map[string]any, salt []byte) error {
	for _, pf := range fields {
		v, ok := values[pf.Path]
		if !ok || v == nil {
			continue
		}
		ft := pf.Field.SoleType()
		if pf.Field.IsUnion() {
			ft = detectValueType(v, pf.Field)
		}
		switch ft {
		case codec.TPassword:
			s, ok := v.(string)
			if !ok {
				continue
			}
			hashed, err := icrypto.HashPassword(s)
			if err != nil {
				return err
			}
			values[pf.Path] = hashed
		case codec.TID, codec.TTable:
			values[pf.Path] = decodeIntOrOpaque(v, salt)
		case codec.TJSON:
			if _, ok := v.(string); ok {
				continue
			}
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			values[pf.Path] = string(b)
		}
	}
	return nil
}

func decodeIntOrOpaque(v any, salt []byte) any {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return n
	case int64:
		return n
	case string:
		if id, ok := icrypto.DecodeID(n, salt); ok {
			return id
		}
		return v
	default:
		return v
	}
}

func detectValueType(v any, f *schema.Field) codec.FieldType {
	s, ok := v.(string)
	if !ok {
		if _, isMap := v.(map[string]any); isMap {
			return codec.TJSON
		}
		return f.Type[0]
	}
	allowed := map[codec.FieldType]bool{}
	for _, t := range f.Type {
		allowed[t] = true
	}
	return codec.Detect(s, allowed)
}
