package confbind

import (
	"fmt"
	"strings"
)

// SchemaError reports a schema that cannot be used for binding,
// e.g. one that declares no fields.
type SchemaError struct {
	Type   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid schema for %s: %s", e.Type, e.Reason)
}

// MissingFieldError reports a required key absent from the input record.
// Present lists the keys that were found, sorted, for diagnostics.
type MissingFieldError struct {
	Field   string
	Present []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing key in record: %q (present: [%s])", e.Field, strings.Join(e.Present, ", "))
}

// DocumentParseError reports a document that could not be decoded into a mapping.
// Err holds the decoder's own diagnostic.
type DocumentParseError struct {
	Format Format
	Source string
	Err    error
}

func (e *DocumentParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("failed to parse %s document %s: %v", e.Format, e.Source, e.Err)
	}
	return fmt.Sprintf("failed to parse %s document: %v", e.Format, e.Err)
}

func (e *DocumentParseError) Unwrap() error { return e.Err }

// TypeError reports a Value of the wrong kind handed to a converter.
type TypeError struct {
	Want Kind
	Got  Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Want, e.Got)
}

// FieldError attaches a field name to a conversion failure.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// UnknownFieldError is returned by strict binders for record keys
// that no schema field declares.
type UnknownFieldError struct {
	Fields []string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown keys in record: [%s]", strings.Join(e.Fields, ", "))
}
