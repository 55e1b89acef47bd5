package confbind

import (
	"fmt"
	"math"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Converters for the common field types. Each fails with a *TypeError when
// the value holds the wrong kind.

// ParseValue hands the raw Value through unchanged.
func ParseValue(v Value) (Value, error) { return v.Clone(), nil }

// ParseString converts a string value.
func ParseString(v Value) (string, error) { return v.AsString() }

// ParseBool converts a boolean value.
func ParseBool(v Value) (bool, error) { return v.AsBool() }

// ParseInt64 converts an integer value.
func ParseInt64(v Value) (int64, error) { return v.AsInt() }

// ParseInt converts an integer value that fits the platform int.
func ParseInt(v Value) (int, error) {
	i, err := v.AsInt()
	if err != nil {
		return 0, err
	}
	if i > math.MaxInt || i < math.MinInt {
		return 0, fmt.Errorf("integer %d overflows int", i)
	}
	return int(i), nil
}

// ParseFloat converts a float value; integers are widened.
func ParseFloat(v Value) (float64, error) { return v.AsFloat() }

// ParseDuration converts a string such as "90s" or "1h30m".
func ParseDuration(v Value) (time.Duration, error) {
	s, err := v.AsString()
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %w", s, err)
	}
	return d, nil
}

// ParseStrings converts a list whose items are all strings.
func ParseStrings(v Value) ([]string, error) {
	items, err := v.AsList()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, err := item.AsString()
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// ParseInto decodes a map value into a struct (or map) of type V using
// mapstructure tags. Keys with no matching field are an error, and no weak
// type conversion is performed.
func ParseInto[V any](v Value) (V, error) {
	var out V
	rec, err := v.AsRecord()
	if err != nil {
		return out, err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &out,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return out, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(rec.Interface()); err != nil {
		return out, err
	}
	return out, nil
}
