package schema

import "inibase/internal/codec"

// DefaultValue returns the zero value a field should take when a post
// payload omits it: false for booleans, an empty slice for arrays, an
// empty nested object for object fields, and nil for everything else.
// For a union-typed field it prefers array, then string, then number —
// the same preference order spec.md §4.3 specifies for getDefaultValue.
func DefaultValue(f *Field) any {
	t := resolveDefaultType(f)
	switch t {
	case codec.TBoolean:
		return false
	case codec.TArray:
		return []any{}
	case codec.TObject:
		out := map[string]any{}
		for _, c := range f.Children {
			out[c.Key] = DefaultValue(c)
		}
		return out
	default:
		return nil
	}
}

func resolveDefaultType(f *Field) codec.FieldType {
	if !f.IsUnion() {
		return f.SoleType()
	}
	for _, pref := range []codec.FieldType{codec.TArray, codec.TString, codec.TNumber} {
		if f.HasType(pref) {
			return pref
		}
	}
	return f.Type[0]
}
