package confbind

import (
	"fmt"
	"reflect"
)

// ParseFunc transforms the raw value of one field before it is converted.
// It receives exactly what the record holds for that field.
type ParseFunc func(Value) (Value, error)

// Converter turns a Value into the concrete Go type of a field.
// Converters must fail on a kind mismatch rather than coerce.
type Converter[V any] func(Value) (V, error)

// Field describes one field of a configuration type T.
// Build fields with Required or Defaulted.
type Field[T any] struct {
	name     string
	required bool
	parse    ParseFunc

	// assign converts raw and stores it into dst.
	assign func(dst *T, raw Value) error
	// fill stores the declared default into dst.
	fill func(dst *T)
}

// Required declares a field with no default: binding fails when the record
// does not contain it.
func Required[T, V any](name string, set func(*T, V), conv Converter[V]) Field[T] {
	return Field[T]{
		name:     name,
		required: true,
		assign:   assigner(set, conv),
	}
}

// Defaulted declares a field whose value falls back to def when the record
// does not contain it (or holds null for it). def is stored as is; it is
// never passed through a parse function or converter.
func Defaulted[T, V any](name string, def V, set func(*T, V), conv Converter[V]) Field[T] {
	return Field[T]{
		name:   name,
		assign: assigner(set, conv),
		fill:   func(dst *T) { set(dst, def) },
	}
}

func assigner[T, V any](set func(*T, V), conv Converter[V]) func(*T, Value) error {
	return func(dst *T, raw Value) error {
		v, err := conv(raw)
		if err != nil {
			return err
		}
		set(dst, v)
		return nil
	}
}

// WithParse returns a copy of f that runs fn on the raw value before conversion.
func (f Field[T]) WithParse(fn ParseFunc) Field[T] {
	f.parse = fn
	return f
}

// Name returns the record key the field binds to.
func (f Field[T]) Name() string { return f.name }

// IsRequired reports whether the field has no declared default.
func (f Field[T]) IsRequired() bool { return f.required }

// Schema is the ordered field description of a configuration type T.
// A Schema is read-only once built and may be shared between goroutines.
type Schema[T any] struct {
	typeName string
	fields   []Field[T]
	index    map[string]int
}

// NewSchema builds a Schema from fields, in declaration order.
// It fails with a *SchemaError when no fields are given, when a field has
// no name or no setter, or when two fields share a name.
func NewSchema[T any](fields ...Field[T]) (*Schema[T], error) {
	typeName := reflect.TypeOf((*T)(nil)).Elem().String()

	if len(fields) == 0 {
		return nil, &SchemaError{Type: typeName, Reason: "no fields declared"}
	}

	s := &Schema[T]{
		typeName: typeName,
		fields:   make([]Field[T], len(fields)),
		index:    make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.name == "" {
			return nil, &SchemaError{Type: typeName, Reason: fmt.Sprintf("field %d has no name", i)}
		}
		if f.assign == nil {
			return nil, &SchemaError{Type: typeName, Reason: fmt.Sprintf("field %q was not built with Required or Defaulted", f.name)}
		}
		if _, dup := s.index[f.name]; dup {
			return nil, &SchemaError{Type: typeName, Reason: fmt.Sprintf("duplicate field %q", f.name)}
		}
		s.index[f.name] = i
		s.fields[i] = f
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Intended for
// package-level schema variables.
func MustSchema[T any](fields ...Field[T]) *Schema[T] {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// TypeName returns the Go type name the schema describes.
func (s *Schema[T]) TypeName() string { return s.typeName }

// Names returns all field names in declaration order.
func (s *Schema[T]) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// Required returns the names of fields without a default, in declaration order.
func (s *Schema[T]) Required() []string {
	var names []string
	for _, f := range s.fields {
		if f.required {
			names = append(names, f.name)
		}
	}
	return names
}

// Defaulted returns the names of fields with a default, in declaration order.
func (s *Schema[T]) Defaulted() []string {
	var names []string
	for _, f := range s.fields {
		if !f.required {
			names = append(names, f.name)
		}
	}
	return names
}

// Has reports whether the schema declares a field called name.
func (s *Schema[T]) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}
