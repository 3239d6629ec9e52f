package param

import (
	"fmt"
	"strconv"
	"strings"
)

// Time is an evaluation time in frames.
type Time float64

// Kind tags the closed set of parameter variants.
type Kind int

const (
	KindInteger Kind = iota + 1
	KindDouble
	KindBoolean
	KindString
	KindChoice
	KindComposite
)

var kindNames = map[Kind]string{
	KindInteger:   "integer",
	KindDouble:    "double",
	KindBoolean:   "boolean",
	KindString:    "string",
	KindChoice:    "choice",
	KindComposite: "composite",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Numeric reports whether derive and integrate are meaningful for k.
func (k Kind) Numeric() bool {
	return k == KindInteger || k == KindDouble || k == KindComposite
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown parameter kind %q", s)
}

// Value is the typed envelope used by the generic accessor. The set of
// implementations is closed: IntValue, DoubleValue, BoolValue, StringValue,
// ChoiceValue and TupleValue.
type Value interface {
	Kind() Kind
	String() string
	paramValue()
}

// IntValue carries an integer parameter value.
type IntValue int64

// DoubleValue carries a double parameter value.
type DoubleValue float64

// BoolValue carries a boolean parameter value.
type BoolValue bool

// StringValue carries a string parameter value.
type StringValue string

// ChoiceValue carries a choice index and, on reads, the option label.
// Only Index is consulted on writes.
type ChoiceValue struct {
	Index  int
	Option string
}

// TupleValue carries the components of a composite parameter.
type TupleValue []float64

func (IntValue) Kind() Kind    { return KindInteger }
func (DoubleValue) Kind() Kind { return KindDouble }
func (BoolValue) Kind() Kind   { return KindBoolean }
func (StringValue) Kind() Kind { return KindString }
func (ChoiceValue) Kind() Kind { return KindChoice }
func (TupleValue) Kind() Kind  { return KindComposite }

func (v IntValue) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v DoubleValue) String() string { return formatFloat(float64(v)) }
func (v BoolValue) String() string   { return strconv.FormatBool(bool(v)) }
func (v StringValue) String() string { return string(v) }
func (v ChoiceValue) String() string { return v.Option }

func (v TupleValue) String() string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = formatFloat(f)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (IntValue) paramValue()    {}
func (DoubleValue) paramValue() {}
func (BoolValue) paramValue()   {}
func (StringValue) paramValue() {}
func (ChoiceValue) paramValue() {}
func (TupleValue) paramValue()  {}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
