package codec

// FieldType enumerates the scalar and structural types a schema field can
// declare. A field may declare a single FieldType or a set of them (a
// union), in which case Detect chooses the concrete type per value.
type FieldType string

const (
	TString   FieldType = "string"
	TNumber   FieldType = "number"
	TBoolean  FieldType = "boolean"
	TDate     FieldType = "date"
	TEmail    FieldType = "email"
	TURL      FieldType = "url"
	TTable    FieldType = "table"
	TObject   FieldType = "object"
	TArray    FieldType = "array"
	TPassword FieldType = "password"
	THTML     FieldType = "html"
	TIP       FieldType = "ip"
	TJSON     FieldType = "json"
	TID       FieldType = "id"
)

// IsScalarFile reports whether a field of this type owns its own column
// file (everything except object, which decomposes into its children's
// column files instead). TArray reports true whatever its element type.
func IsScalarFile(t FieldType) bool {
	switch t {
	case TObject:
		return false
	default:
		return true
	}
}
