package confbind

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// decodeHCL reads an HCL file made only of attributes, e.g.
//
//	base = {
//	  param1 = 1
//	}
//	deltas = [{ param1 = 2 }]
//
// Blocks are rejected; expressions are evaluated without variables or functions.
func decodeHCL(data []byte, source string) (Record, error) {
	filename := source
	if filename == "" {
		filename = "document.hcl"
	}

	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	rec := make(Record, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		if valDiags.HasErrors() {
			return nil, valDiags
		}
		v, err := fromCty(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		rec[name] = v
	}
	return rec, nil
}

func fromCty(val cty.Value) (Value, error) {
	if val.IsNull() {
		return Null(), nil
	}
	if !val.IsKnown() {
		return Value{}, errors.New("value is not known")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return String(val.AsString()), nil
	case ty == cty.Bool:
		return Bool(val.True()), nil
	case ty == cty.Number:
		return fromBigFloat(val.AsBigFloat())
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		var items []Value
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			v, err := fromCty(ev)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", len(items), err)
			}
			items = append(items, v)
		}
		if items == nil {
			items = []Value{}
		}
		return Value{kind: KindList, list: items}, nil
	case ty.IsMapType() || ty.IsObjectType():
		m := make(map[string]Value)
		for it := val.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			key := k.AsString()
			v, err := fromCty(ev)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", key, err)
			}
			m[key] = v
		}
		return Value{kind: KindMap, m: m}, nil
	default:
		return Value{}, fmt.Errorf("unsupported HCL type %s", ty.FriendlyName())
	}
}

func fromBigFloat(bf *big.Float) (Value, error) {
	if bf.IsInt() {
		if i, acc := bf.Int64(); acc == big.Exact {
			return Int(i), nil
		}
	}
	f, _ := bf.Float64()
	return Float(f), nil
}
