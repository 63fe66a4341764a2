package codec

import "strings"

// depthOf returns the nesting depth of a structural value: 0 for a
// scalar, 1 for a flat array of scalars, 2 for an array of arrays, etc.
func depthOf(v any) int {
	arr, ok := v.([]any)
	if !ok {
		return 0
	}
	maxChild := 0
	for _, e := range arr {
		if d := depthOf(e); d > maxChild {
			maxChild = d
		}
	}
	return maxChild + 1
}

// EncodeNested joins a structural value (string | bool | float64 | nil |
// []any of the same) into its one-line representation using the
// delimiter hierarchy: a depth-D array is joined with Delimiters[D-1] at
// its own level, recursing into Delimiters[D-2] for its children.
func EncodeNested(v any) string {
	return encodeAtDepth(v, depthOf(v))
}

func encodeAtDepth(v any, depth int) string {
	arr, ok := v.([]any)
	if !ok {
		return encodeLeaf(v)
	}
	delim := string(delimAt(depth - 1))
	parts := make([]string, len(arr))
	for i, e := range arr {
		parts[i] = encodeAtDepth(e, depth-1)
	}
	return strings.Join(parts, delim)
}

func encodeLeaf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "1"
		}
		return "0"
	case string:
		return EscapeString(t)
	default:
		return formatNumber(v)
	}
}

// DecodeNested reverses EncodeNested without any type knowledge: it
// repeatedly finds the outermost delimiter present in the raw line and
// splits on it, recursing into each piece, until only unescaped scalar
// strings remain. The typed decode pass (Decode) re-interprets the
// resulting leaves according to the field's declared type.
func DecodeNested(raw string) any {
	if raw == "" {
		return nil
	}
	for i := len(Delimiters) - 1; i >= 0; i-- {
		d := Delimiters[i]
		if !strings.ContainsRune(raw, d) {
			continue
		}
		parts := strings.Split(raw, string(d))
		out := make([]any, len(parts))
		for j, p := range parts {
			out[j] = DecodeNested(p)
		}
		return out
	}
	return UnescapeString(raw)
}
