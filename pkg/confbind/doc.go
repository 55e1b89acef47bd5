// Package confbind binds untyped configuration documents to statically typed
// Go structs.
//
// # Overview
//
// A Schema lists the fields of a configuration type in order. Each field is
// either required (binding fails when the key is missing) or defaulted (the
// declared default is used when the key is missing). Fields convert the raw
// document Value into their Go type with a Converter, optionally after a
// ParseFunc has transformed the raw value.
//
// A Binder turns records, YAML/TOML/HCL/JSON documents and multi-configuration
// documents into values of the configuration type.
//
// # Usage Example
//
//	type Config struct {
//		Param1 int
//		Param2 int
//		Param3 float64
//		Param4 string
//	}
//
//	var configSchema = confbind.MustSchema(
//		confbind.Required("param1", func(c *Config, v int) { c.Param1 = v }, confbind.ParseInt),
//		confbind.Required("param2", func(c *Config, v int) { c.Param2 = v }, confbind.ParseInt),
//		confbind.Defaulted("param3", 2.0, func(c *Config, v float64) { c.Param3 = v }, confbind.ParseFloat),
//		confbind.Defaulted("param4", "oi", func(c *Config, v string) { c.Param4 = v }, confbind.ParseString),
//	)
//
//	binder := confbind.NewBinder(configSchema,
//		confbind.WithParser("param2", func(v confbind.Value) (confbind.Value, error) {
//			n, err := v.AsInt()
//			return confbind.Int(2 * n), err
//		}))
//
//	cfg, err := binder.BindFile("experiment.yaml")
//
// # Multi-configuration documents
//
// A multi-configuration document holds a required "base" mapping and an
// optional "deltas" list. BindMulti returns the base configuration followed
// by one configuration per delta, each built from a fresh copy of the base
// with the delta's keys written over it:
//
//	base:
//	  param1: 1
//	  param2: 2
//	deltas:
//	  - param2: 4
//	  - param1: 2
//	    param4: "hello world"
//
// # Errors
//
//   - *SchemaError: the schema declares no fields (or is otherwise unusable)
//   - *MissingFieldError: a required key, or "base", is absent
//   - *DocumentParseError: the document could not be decoded into a mapping
//   - *FieldError wrapping *TypeError: a value of the wrong kind for its field
//   - errors from parse functions are returned as they are
//
// Keys the schema does not declare are ignored unless the Binder was built
// with WithStrict.
package confbind
