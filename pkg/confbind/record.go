package confbind

import (
	"fmt"
	"sort"
)

// Record is an untyped key/value mapping, the input to binding.
// Binding only reads a Record; it never modifies it.
type Record map[string]Value

// RecordFromMap converts a decoded document (or any plain Go map) into a Record.
func RecordFromMap(m map[string]any) (Record, error) {
	rec := make(Record, len(m))
	for k, item := range m {
		v, err := FromAny(item)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		rec[k] = v
	}
	return rec, nil
}

// Keys returns the keys of r in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under key and whether it was present.
func (r Record) Get(key string) (Value, bool) {
	v, ok := r[key]
	return v, ok
}

// Clone returns a deep copy of r. A nil Record clones to an empty one.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v.Clone()
	}
	return out
}

// Overlay returns a deep copy of r with every key of delta written over it.
// The merge is shallow: a nested map in delta replaces the whole entry in r.
// Neither r nor delta is modified.
func (r Record) Overlay(delta Record) Record {
	out := r.Clone()
	for k, v := range delta {
		out[k] = v.Clone()
	}
	return out
}

// Equal reports whether r and other hold the same keys and equal values.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Interface converts r into a map[string]any of plain Go values.
func (r Record) Interface() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Interface()
	}
	return out
}
