package confbind

import (
	"fmt"
	"io"
	"sort"
)

// Binder produces configuration values of type T from records and documents.
// A Binder is immutable and safe for concurrent use.
type Binder[T any] struct {
	schema  *Schema[T]
	parsers map[string]ParseFunc
	strict  bool
}

type binderOptions struct {
	parsers map[string]ParseFunc
	strict  bool
}

// Option configures a Binder.
type Option func(*binderOptions)

// WithParser registers fn as the parse function for field name, replacing
// any parse function the schema declared for it.
func WithParser(name string, fn ParseFunc) Option {
	return func(o *binderOptions) {
		o.parsers[name] = fn
	}
}

// WithParsers registers several parse functions at once.
func WithParsers(parsers map[string]ParseFunc) Option {
	return func(o *binderOptions) {
		for name, fn := range parsers {
			o.parsers[name] = fn
		}
	}
}

// WithStrict makes Bind reject records holding keys the schema does not declare.
// By default such keys are ignored.
func WithStrict() Option {
	return func(o *binderOptions) {
		o.strict = true
	}
}

// NewBinder returns a Binder for schema.
func NewBinder[T any](schema *Schema[T], opts ...Option) *Binder[T] {
	o := binderOptions{parsers: make(map[string]ParseFunc)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Binder[T]{
		schema:  schema,
		parsers: o.parsers,
		strict:  o.strict,
	}
}

// Schema returns the schema the binder was built with.
func (b *Binder[T]) Schema() *Schema[T] { return b.schema }

// Bind builds a T from rec.
//
// Required fields must be present in rec. Present fields run through their
// parse function (if any) and converter. Defaulted fields that are absent or
// null take the declared default unchanged. On error the zero T is returned.
func (b *Binder[T]) Bind(rec Record) (T, error) {
	var out T
	var zero T

	if b.strict {
		if err := b.checkUnknown(rec); err != nil {
			return zero, err
		}
	}

	for _, f := range b.schema.fields {
		raw, ok := rec[f.name]
		if !f.required && (!ok || raw.IsNull()) {
			f.fill(&out)
			continue
		}
		if !ok {
			return zero, &MissingFieldError{Field: f.name, Present: rec.Keys()}
		}

		if parse := b.parserFor(f); parse != nil {
			parsed, err := parse(raw)
			if err != nil {
				return zero, err
			}
			raw = parsed
		}
		if err := f.assign(&out, raw); err != nil {
			return zero, &FieldError{Field: f.name, Err: err}
		}
	}
	return out, nil
}

func (b *Binder[T]) parserFor(f Field[T]) ParseFunc {
	if fn, ok := b.parsers[f.name]; ok {
		return fn
	}
	return f.parse
}

func (b *Binder[T]) checkUnknown(rec Record) error {
	var unknown []string
	for k := range rec {
		if !b.schema.Has(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &UnknownFieldError{Fields: unknown}
}

// BindMap builds a T from a plain Go map, e.g. one assembled in code.
func (b *Binder[T]) BindMap(m map[string]any) (T, error) {
	rec, err := RecordFromMap(m)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to convert map: %w", err)
	}
	return b.Bind(rec)
}

// BindDocument decodes a single document in format from r and binds it.
func (b *Binder[T]) BindDocument(r io.Reader, format Format) (T, error) {
	rec, err := DecodeRecord(r, format)
	if err != nil {
		var zero T
		return zero, err
	}
	return b.Bind(rec)
}

// BindFile reads the document at path, choosing the format by extension, and binds it.
func (b *Binder[T]) BindFile(path string) (T, error) {
	rec, err := LoadRecord(path)
	if err != nil {
		var zero T
		return zero, err
	}
	return b.Bind(rec)
}

// BindMulti interprets rec as a multi-configuration record (a "base" entry
// plus optional "deltas") and binds every expanded configuration.
// The result holds the base first, then one entry per delta in order.
func (b *Binder[T]) BindMulti(rec Record) ([]T, error) {
	multi, err := ParseMulti(rec)
	if err != nil {
		return nil, err
	}

	expanded := multi.Expand()
	out := make([]T, 0, len(expanded))
	for _, r := range expanded {
		cfg, err := b.Bind(r)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// BindMultiDocument decodes a multi-configuration document from r and binds it.
func (b *Binder[T]) BindMultiDocument(r io.Reader, format Format) ([]T, error) {
	rec, err := DecodeRecord(r, format)
	if err != nil {
		return nil, err
	}
	return b.BindMulti(rec)
}

// BindMultiFile reads a multi-configuration document from path and binds it.
func (b *Binder[T]) BindMultiFile(path string) ([]T, error) {
	rec, err := LoadRecord(path)
	if err != nil {
		return nil, err
	}
	return b.BindMulti(rec)
}
