package confbind

import "fmt"

// Keys of a multi-configuration record.
const (
	BaseKey   = "base"
	DeltasKey = "deltas"
)

// MultiConfig is a base record plus an ordered list of deltas. Every delta
// describes one more configuration: the base with the delta's keys written over it.
//
// Example (YAML):
//
//	base:
//	  param1: 1
//	  param2: 2
//	deltas:
//	  - param2: 4
//	  - param1: 2
//	    param3: "x"
type MultiConfig struct {
	Base   Record
	Deltas []Record
}

// ParseMulti splits rec into its base and deltas.
// "base" must be present and hold a map. "deltas" is optional (null counts
// as absent) and must hold a list of maps.
func ParseMulti(rec Record) (*MultiConfig, error) {
	baseVal, ok := rec[BaseKey]
	if !ok {
		return nil, &MissingFieldError{Field: BaseKey, Present: rec.Keys()}
	}
	base, err := baseVal.AsRecord()
	if err != nil {
		return nil, &FieldError{Field: BaseKey, Err: err}
	}

	multi := &MultiConfig{Base: base}

	deltasVal, ok := rec[DeltasKey]
	if !ok || deltasVal.IsNull() {
		return multi, nil
	}
	items, err := deltasVal.AsList()
	if err != nil {
		return nil, &FieldError{Field: DeltasKey, Err: err}
	}
	multi.Deltas = make([]Record, len(items))
	for i, item := range items {
		d, err := item.AsRecord()
		if err != nil {
			return nil, &FieldError{Field: fmt.Sprintf("%s[%d]", DeltasKey, i), Err: err}
		}
		multi.Deltas[i] = d
	}
	return multi, nil
}

// Expand returns one record per configuration: a copy of the base first,
// then base overlaid with each delta in order. Each delta is applied to a
// fresh copy of the base, so deltas never see each other.
func (m *MultiConfig) Expand() []Record {
	out := make([]Record, 0, 1+len(m.Deltas))
	out = append(out, m.Base.Clone())
	for _, d := range m.Deltas {
		out = append(out, m.Base.Overlay(d))
	}
	return out
}

// Len returns the number of configurations Expand produces.
func (m *MultiConfig) Len() int { return 1 + len(m.Deltas) }
