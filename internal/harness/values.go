package harness

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/ofxhost/internal/param"
)

// tolerance for numeric expectations, relative to the larger magnitude.
const tolerance = 1e-9

// toValue converts a YAML-decoded value into a parameter value of kind k.
// Choice values may be an index or one of options.
func toValue(k param.Kind, options []string, raw any) (param.Value, error) {
	if raw == nil {
		return nil, fmt.Errorf("null values are not parameter values")
	}

	switch k {
	case param.KindInteger:
		f, ok := asFloat(raw)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not an integer", raw)
		}
		return param.IntValue(int64(f)), nil

	case param.KindDouble:
		f, ok := asFloat(raw)
		if !ok {
			return nil, fmt.Errorf("%v is not a number", raw)
		}
		return param.DoubleValue(f), nil

	case param.KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%v is not a boolean", raw)
		}
		return param.BoolValue(b), nil

	case param.KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%v is not a string", raw)
		}
		return param.StringValue(s), nil

	case param.KindChoice:
		if s, ok := raw.(string); ok {
			i := slices.Index(options, s)
			if i < 0 {
				return nil, fmt.Errorf("%q is not one of %v", s, options)
			}
			return param.ChoiceValue{Index: i, Option: s}, nil
		}
		f, ok := asFloat(raw)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("%v is not a choice index or label", raw)
		}
		cv := param.ChoiceValue{Index: int(f)}
		if cv.Index >= 0 && cv.Index < len(options) {
			cv.Option = options[cv.Index]
		}
		return cv, nil

	case param.KindComposite:
		seq, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("%v is not a list of numbers", raw)
		}
		tuple := make(param.TupleValue, len(seq))
		for i, e := range seq {
			f, ok := asFloat(e)
			if !ok {
				return nil, fmt.Errorf("component %d: %v is not a number", i, e)
			}
			tuple[i] = f
		}
		return tuple, nil
	}
	return nil, fmt.Errorf("unknown parameter kind %v", k)
}

// asFloat accepts the numeric types yaml.v3 decodes into.
func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// resultKind is the kind of a derive or integrate result for a parameter
// of kind k.
func resultKind(k param.Kind) param.Kind {
	if k == param.KindComposite {
		return param.KindComposite
	}
	return param.KindDouble
}

// valuesMatch compares an expected value with an actual one. Numbers
// compare within tolerance and choices by index.
func valuesMatch(want, got param.Value) bool {
	switch w := want.(type) {
	case param.DoubleValue:
		g, ok := got.(param.DoubleValue)
		return ok && closeEnough(float64(w), float64(g))
	case param.TupleValue:
		g, ok := got.(param.TupleValue)
		if !ok || len(g) != len(w) {
			return false
		}
		for i := range w {
			if !closeEnough(w[i], g[i]) {
				return false
			}
		}
		return true
	case param.ChoiceValue:
		g, ok := got.(param.ChoiceValue)
		return ok && g.Index == w.Index
	}
	return want == got
}

func closeEnough(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tolerance*scale
}

// formatValue renders v for the trace. Floating point values are rounded
// to ten significant digits so traces stay stable across platforms.
func formatValue(v param.Value) string {
	switch x := v.(type) {
	case param.DoubleValue:
		return formatFloat(float64(x))
	case param.TupleValue:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = formatFloat(f)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case nil:
		return ""
	}
	return v.String()
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', 10, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

// formatNamed renders name=value pairs in the given order.
func formatNamed(names []string, values map[string]param.Value) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+"="+formatValue(values[n]))
	}
	return strings.Join(parts, " ")
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
