// Package ierr defines the small set of typed errors the engine surfaces.
// Every operation that observes one of these conditions returns it wrapped
// with fmt.Errorf("...: %w", ...) rather than inventing an ad-hoc message,
// so callers can use errors.Is/errors.As against the sentinel kinds below.
package ierr

import "fmt"

// Kind identifies one of the engine's known failure modes.
type Kind string

const (
	NoEnv             Kind = "NO_ENV"
	TableExists       Kind = "TABLE_EXISTS"
	TableNotExists    Kind = "TABLE_NOT_EXISTS"
	TableEmpty        Kind = "TABLE_EMPTY"
	NoSchema          Kind = "NO_SCHEMA"
	InvalidID         Kind = "INVALID_ID"
	InvalidType       Kind = "INVALID_TYPE"
	InvalidParameters Kind = "INVALID_PARAMETERS"
	FieldRequired     Kind = "FIELD_REQUIRED"
	FieldUnique       Kind = "FIELD_UNIQUE"
	UnsupportedSQL    Kind = "UNSUPPORTED_SQL_TYPE"
)

// Error is a typed engine error carrying the kind and the template
// variables that produced its message, so callers can branch on Kind
// without string-matching the message.
type Error struct {
	Kind Kind
	Vars map[string]any
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Is lets errors.Is(err, ierr.New(SomeKind)) match any Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds a sentinel Error of the given kind with no substitution data;
// useful as a target for errors.Is.
func New(kind Kind) *Error {
	return &Error{Kind: kind, msg: string(kind)}
}

func build(kind Kind, format string, vars map[string]any, args ...any) *Error {
	return &Error{Kind: kind, Vars: vars, msg: fmt.Sprintf(format, args...)}
}

func NoEnvErr() error {
	return build(NoEnv, "no secret configured: set INIBASE_SECRET or allow .env generation", nil)
}

func TableExistsErr(table string) error {
	return build(TableExists, "table %q already exists", map[string]any{"table": table}, table)
}

func TableNotExistsErr(table string) error {
	return build(TableNotExists, "table %q does not exist", map[string]any{"table": table}, table)
}

func TableEmptyErr(table string) error {
	return build(TableEmpty, "table %q is empty", map[string]any{"table": table}, table)
}

func NoSchemaErr(table string) error {
	return build(NoSchema, "table %q has no schema", map[string]any{"table": table}, table)
}

func InvalidIDErr(id string) error {
	return build(InvalidID, "invalid id %q", map[string]any{"id": id}, id)
}

func InvalidTypeErr(field string, expected, got any) error {
	return build(InvalidType, "field %q: expected type %v, got %v", map[string]any{
		"field": field, "expected": expected, "got": got,
	}, field, expected, got)
}

func InvalidParametersErr(detail string) error {
	return build(InvalidParameters, "invalid parameters: %s", map[string]any{"detail": detail}, detail)
}

func FieldRequiredErr(field string) error {
	return build(FieldRequired, "field %q is required", map[string]any{"field": field}, field)
}

func FieldUniqueErr(field string, value any) error {
	return build(FieldUnique, "field %q must be unique, value %v already exists", map[string]any{
		"field": field, "value": value,
	}, field, value)
}

func UnsupportedSQLTypeErr(sqlType string) error {
	return build(UnsupportedSQL, "unsupported SQL type %q", map[string]any{"type": sqlType}, sqlType)
}
