package property

import (
	"fmt"
	"strconv"
)

// Type is the declared storage type of a property.
type Type int

const (
	TypeString Type = iota + 1
	TypeInt
	TypeDouble
	TypePointer
)

// String returns the lower-case type name used in encodings.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeDouble:
		return "double"
	case TypePointer:
		return "pointer"
	default:
		return "type(" + strconv.Itoa(int(t)) + ")"
	}
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "int":
		return TypeInt, nil
	case "double":
		return TypeDouble, nil
	case "pointer":
		return TypePointer, nil
	default:
		return 0, fmt.Errorf("unknown property type %q", s)
	}
}

// Value is a sealed interface over the four storable property types.
// Only String, Int, Double and Pointer implement it.
type Value interface {
	Type() Type
	propertyValue()
}

// String is a string property value.
type String string

// Int is an integer property value.
type Int int64

// Double is a floating point property value.
type Double float64

// Pointer is an opaque handle. Its meaning belongs to whoever stored it;
// the property layer only moves it around.
type Pointer uintptr

func (String) Type() Type  { return TypeString }
func (Int) Type() Type     { return TypeInt }
func (Double) Type() Type  { return TypeDouble }
func (Pointer) Type() Type { return TypePointer }

func (String) propertyValue()  {}
func (Int) propertyValue()     {}
func (Double) propertyValue()  {}
func (Pointer) propertyValue() {}

// Bool converts a flag to the Int encoding used for boolean properties.
func Bool(b bool) Int {
	if b {
		return 1
	}
	return 0
}

// Zero returns the zero value of t.
func Zero(t Type) Value {
	switch t {
	case TypeString:
		return String("")
	case TypeInt:
		return Int(0)
	case TypeDouble:
		return Double(0)
	case TypePointer:
		return Pointer(0)
	default:
		return nil
	}
}
