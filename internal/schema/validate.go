package schema

import (
	"fmt"

	"inibase/internal/codec"
	"inibase/internal/ierr"
)

// ValidateRecord checks one input record against fields: every required
// leaf must be present (unless it's one of the engine-managed id/
// createdAt/updatedAt columns, which the mutation pipeline stamps
// itself), and every present value must be assignable to one of the
// field's declared types. It mirrors the teacher's Validate() cascade
// (internal/core/validate.go) of small, single-purpose checks run in
// sequence, reshaped around one record instead of one whole database.
func ValidateRecord(fields Schema, data map[string]any, skipRequired bool) error {
	for _, f := range fields {
		if isManagedField(f.Key) {
			continue
		}
		v, present := data[f.Key]
		if !present || v == nil {
			if f.Required && !skipRequired {
				return ierr.FieldRequiredErr(f.Key)
			}
			continue
		}
		if f.IsObject() {
			sub, ok := v.(map[string]any)
			if !ok {
				return ierr.InvalidTypeErr(f.Key, codec.TObject, fmt.Sprintf("%T", v))
			}
			if err := ValidateRecord(f.Children, sub, skipRequired); err != nil {
				return err
			}
			continue
		}
		if f.IsArrayOfObjects() {
			items, ok := v.([]any)
			if !ok {
				return ierr.InvalidTypeErr(f.Key, codec.TArray, fmt.Sprintf("%T", v))
			}
			for _, item := range items {
				sub, ok := item.(map[string]any)
				if !ok {
					return ierr.InvalidTypeErr(f.Key, codec.TObject, fmt.Sprintf("%T", item))
				}
				if err := ValidateRecord(f.Children, sub, skipRequired); err != nil {
					return err
				}
			}
			continue
		}
		if err := validateScalar(f, v); err != nil {
			return err
		}
	}
	return nil
}

func isManagedField(key string) bool {
	return key == "id" || key == "createdAt" || key == "updatedAt"
}

func validateScalar(f *Field, v any) error {
	if f.IsArray() {
		if _, ok := v.([]any); !ok {
			return ierr.InvalidTypeErr(f.Key, codec.TArray, fmt.Sprintf("%T", v))
		}
		return nil
	}
	if f.IsUnion() {
		// Union fields accept anything the detector can resolve later;
		// only a concrete mismatch (e.g. a map where none of the
		// candidate types is object) is rejected here.
		if _, ok := v.(map[string]any); ok && !f.HasType(codec.TJSON) && !f.HasType(codec.TObject) {
			return ierr.InvalidTypeErr(f.Key, f.Type, "object")
		}
		return nil
	}
	switch f.SoleType() {
	case codec.TNumber, codec.TTable, codec.TID:
		switch v.(type) {
		case float64, int, int64:
			return nil
		case string:
			return nil // opaque id / numeric-looking string, resolved during format
		default:
			return ierr.InvalidTypeErr(f.Key, f.SoleType(), fmt.Sprintf("%T", v))
		}
	case codec.TBoolean:
		if _, ok := v.(bool); !ok {
			return ierr.InvalidTypeErr(f.Key, codec.TBoolean, fmt.Sprintf("%T", v))
		}
	case codec.TPassword, codec.TEmail, codec.TURL, codec.TString, codec.THTML, codec.TIP, codec.TDate, codec.TJSON:
		if _, ok := v.(string); !ok {
			return ierr.InvalidTypeErr(f.Key, f.SoleType(), fmt.Sprintf("%T", v))
		}
	}
	return nil
}
