package codec

import (
	"strconv"
	"strings"

	"inibase/internal/icrypto"
)

// formatNumber renders a numeric leaf the way strconv would for the
// canonical int64/float64 representations used throughout the engine.
func formatNumber(v any) string {
	switch n := v.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return ""
	}
}

// Encode renders a typed value to its on-disk line form. id/table values
// are expected to already be raw integers (the mutation pipeline decodes
// any opaque id to an integer before this point, per spec.md §4.9's
// "format" step); Encode never sees opaque hex strings for those types.
func Encode(v any, ft FieldType) string {
	if v == nil {
		return ""
	}
	switch ft {
	case TID, TTable:
		switch n := v.(type) {
		case int64:
			return strconv.FormatInt(n, 10)
		case int:
			return strconv.FormatInt(int64(n), 10)
		case float64:
			return strconv.FormatInt(int64(n), 10)
		default:
			return ""
		}
	case TBoolean:
		b, _ := v.(bool)
		if b {
			return "1"
		}
		return "0"
	case TArray:
		return EncodeNested(v)
	case TJSON:
		s, _ := v.(string)
		return EscapeString(s)
	default:
		if s, ok := v.(string); ok {
			return EscapeString(s)
		}
		return EncodeNested(v)
	}
}

// Decode renders the on-disk line raw back into a typed Go value. ft must
// be a single resolved type (callers resolve unions via Detect first).
// childType is consulted for TArray fields holding a scalar child type.
// salt re-encodes TID/TTable integers into their opaque external form, as
// spec.md §4.1 mandates for typed decode.
func Decode(raw string, ft FieldType, childType FieldType, salt []byte) any {
	if raw == "" {
		return nil
	}
	switch ft {
	case TNumber, TTable:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if ft == TTable {
				return nil
			}
			return nil
		}
		if ft == TTable {
			return icrypto.EncodeID(int64(n), salt)
		}
		return n
	case TID:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil
		}
		return icrypto.EncodeID(n, salt)
	case TBoolean:
		switch raw {
		case "1", "true":
			return true
		case "0", "false":
			return false
		default:
			return nil
		}
	case TArray:
		nested := DecodeNested(raw)
		arr, ok := nested.([]any)
		if !ok {
			arr = []any{nested}
		}
		if childType == "" || childType == TString || childType == TJSON {
			return arr
		}
		out := make([]any, len(arr))
		for i, e := range arr {
			s, _ := e.(string)
			if sub, isArr := e.([]any); isArr {
				out[i] = decodeLeafSlice(sub, childType, salt)
				continue
			}
			out[i] = decodeLeaf(s, childType, salt)
		}
		return out
	case TJSON:
		return UnescapeString(raw)
	default:
		return UnescapeString(raw)
	}
}

func decodeLeafSlice(v []any, childType FieldType, salt []byte) []any {
	out := make([]any, len(v))
	for i, e := range v {
		if sub, ok := e.([]any); ok {
			out[i] = decodeLeafSlice(sub, childType, salt)
			continue
		}
		s, _ := e.(string)
		out[i] = decodeLeaf(s, childType, salt)
	}
	return out
}

func decodeLeaf(s string, childType FieldType, salt []byte) any {
	if s == "" {
		return nil
	}
	switch childType {
	case TNumber:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return n
	case TTable, TID:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil
		}
		return icrypto.EncodeID(n, salt)
	case TBoolean:
		return s == "1" || strings.EqualFold(s, "true")
	default:
		return s
	}
}

// DecodeRawInt parses a column's raw line as the underlying integer,
// bypassing opaque re-encoding. Used internally by joins and the sort
// pipeline, which need the numeric id rather than its external form.
func DecodeRawInt(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
