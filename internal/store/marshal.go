package store

import (
	"fmt"

	"github.com/roach88/ofxhost/internal/param"
	"github.com/roach88/ofxhost/internal/property"
)

// marshalParamValue encodes a parameter value as a canonical JSON array,
// the same encoding the property layer uses: a choice is stored as its
// index, a boolean as 0 or 1, a tuple as one double per component.
func marshalParamValue(v param.Value) (string, error) {
	var vals []property.Value
	switch v := v.(type) {
	case param.IntValue:
		vals = []property.Value{property.Int(v)}
	case param.DoubleValue:
		vals = []property.Value{property.Double(v)}
	case param.BoolValue:
		vals = []property.Value{property.Bool(bool(v))}
	case param.StringValue:
		vals = []property.Value{property.String(v)}
	case param.ChoiceValue:
		vals = []property.Value{property.Int(v.Index)}
	case param.TupleValue:
		vals = make([]property.Value, len(v))
		for i, f := range v {
			vals[i] = property.Double(f)
		}
	default:
		return "", fmt.Errorf("marshal param value: unsupported type %T", v)
	}
	b, err := property.MarshalValues(vals)
	if err != nil {
		return "", fmt.Errorf("marshal param value: %w", err)
	}
	return string(b), nil
}

// unmarshalParamValue decodes a value written by marshalParamValue.
// Choice values come back with only Index set.
func unmarshalParamValue(kind param.Kind, data string) (param.Value, error) {
	t := property.TypeDouble
	switch kind {
	case param.KindInteger, param.KindBoolean, param.KindChoice:
		t = property.TypeInt
	case param.KindString:
		t = property.TypeString
	}
	vals, err := property.UnmarshalValues(t, []byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s value: %w", kind, err)
	}

	if kind == param.KindComposite {
		tuple := make(param.TupleValue, len(vals))
		for i, v := range vals {
			tuple[i] = float64(v.(property.Double))
		}
		return tuple, nil
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("unmarshal %s value: expected 1 element, got %d", kind, len(vals))
	}
	switch v := vals[0].(type) {
	case property.Int:
		switch kind {
		case param.KindBoolean:
			return param.BoolValue(v != 0), nil
		case param.KindChoice:
			return param.ChoiceValue{Index: int(v)}, nil
		default:
			return param.IntValue(v), nil
		}
	case property.Double:
		return param.DoubleValue(v), nil
	case property.String:
		return param.StringValue(v), nil
	}
	return nil, fmt.Errorf("unmarshal %s value: unexpected %T", kind, vals[0])
}

// stateHash hashes the stored form of an effect. Two saves of an
// unchanged effect produce the same hash.
func stateHash(st *EffectState) string {
	var buf []byte
	buf = fmt.Appendf(buf, "plugin=%s\ntime=%g\n", st.PluginID, float64(st.Time))
	for _, c := range st.Clips {
		buf = fmt.Appendf(buf, "clip %s %t\n", c.Name, c.Connected)
	}
	for _, p := range st.Params {
		buf = fmt.Appendf(buf, "param %s %s %s\n", p.Name, p.Kind, p.Value)
		for _, k := range p.Keyframes {
			buf = fmt.Appendf(buf, "key %g %s\n", k.Time, k.Value)
		}
	}
	for _, pr := range st.Properties {
		buf = fmt.Appendf(buf, "prop %s %s %s %s\n", pr.Owner, pr.Name, pr.Type, pr.Values)
	}
	return property.Hash("ofxhost/state/v1", buf)
}
