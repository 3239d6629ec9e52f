// Package status defines the error kinds surfaced by the host core.
//
// Every failure of a property, attribute or parameter operation is a
// *Error carrying a Code. Codes are caller errors: they are reported at the
// call that caused them, never retried, and never leave partially written
// state behind.
//
// Match codes with errors.Is against the exported sentinels:
//
//	if errors.Is(err, status.ErrTypeMismatch) { ... }
package status

import (
	"errors"
	"fmt"
)

// Code identifies the category of an error.
type Code string

const (
	// CodeUnknownProperty indicates a property name that was never declared.
	CodeUnknownProperty Code = "UNKNOWN_PROPERTY"

	// CodeUnknownParameter indicates a parameter name absent from a ParamSet.
	CodeUnknownParameter Code = "UNKNOWN_PARAMETER"

	// CodeUnknownClip indicates a clip name absent from an effect.
	CodeUnknownClip Code = "UNKNOWN_CLIP"

	// CodeDuplicateProperty indicates a redeclaration with a different spec.
	CodeDuplicateProperty Code = "DUPLICATE_PROPERTY"

	// CodeDuplicateAttribute indicates two clips or parameters sharing a name.
	CodeDuplicateAttribute Code = "DUPLICATE_ATTRIBUTE"

	// CodeIndexOutOfRange indicates an index outside a dimension or option list.
	CodeIndexOutOfRange Code = "INDEX_OUT_OF_RANGE"

	// CodeTypeMismatch indicates a value or asserted kind of the wrong type.
	CodeTypeMismatch Code = "TYPE_MISMATCH"

	// CodeInvalidCast indicates a copy or fetch across concrete variants.
	CodeInvalidCast Code = "INVALID_CAST"

	// CodeNotSettable indicates a write to a read-only or frozen property.
	CodeNotSettable Code = "NOT_SETTABLE"

	// CodeUnsupported indicates an operation the variant has no meaning for.
	CodeUnsupported Code = "UNSUPPORTED"

	// CodeMissingHostFeature indicates a dynamic override the variant does not implement.
	CodeMissingHostFeature Code = "MISSING_HOST_FEATURE"

	// CodeReentrant indicates a mutation from inside a notification for the same target.
	CodeReentrant Code = "REENTRANT"

	// CodeBusy indicates a second concurrent render session on one effect.
	CodeBusy Code = "BUSY"

	// CodeUnconnectedClip indicates a render started with a required clip unconnected.
	CodeUnconnectedClip Code = "UNCONNECTED_CLIP"
)

// ofxStatus maps codes onto the status strings of the plugin boundary.
var ofxStatus = map[Code]string{
	CodeUnknownProperty:    "kOfxStatErrUnknown",
	CodeUnknownParameter:   "kOfxStatErrUnknown",
	CodeUnknownClip:        "kOfxStatErrUnknown",
	CodeDuplicateProperty:  "kOfxStatErrExists",
	CodeDuplicateAttribute: "kOfxStatErrExists",
	CodeIndexOutOfRange:    "kOfxStatErrBadIndex",
	CodeTypeMismatch:       "kOfxStatErrValue",
	CodeInvalidCast:        "kOfxStatErrBadHandle",
	CodeNotSettable:        "kOfxStatErrValue",
	CodeUnsupported:        "kOfxStatErrUnsupported",
	CodeMissingHostFeature: "kOfxStatErrMissingHostFeature",
	CodeReentrant:          "kOfxStatFailed",
	CodeBusy:               "kOfxStatFailed",
	CodeUnconnectedClip:    "kOfxStatFailed",
}

// OfxStatus returns the boundary status string for the code.
func (c Code) OfxStatus() string {
	if s, ok := ofxStatus[c]; ok {
		return s
	}
	return "kOfxStatFailed"
}

// Error is a failure of a host core operation.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Name is the property, parameter or clip involved, if any.
	Name string

	// Expected and Actual describe a type disagreement.
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Expected != "" || e.Actual != "":
		return fmt.Sprintf("%s: %s (name=%s, expected=%s, actual=%s)", e.Code, e.Message, e.Name, e.Expected, e.Actual)
	case e.Name != "":
		return fmt.Sprintf("%s: %s (name=%s)", e.Code, e.Message, e.Name)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Is reports whether target is a *Error with the same code.
// This lets the package sentinels match any error of their category.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrUnknownProperty    = &Error{Code: CodeUnknownProperty}
	ErrUnknownParameter   = &Error{Code: CodeUnknownParameter}
	ErrUnknownClip        = &Error{Code: CodeUnknownClip}
	ErrDuplicateProperty  = &Error{Code: CodeDuplicateProperty}
	ErrDuplicateAttribute = &Error{Code: CodeDuplicateAttribute}
	ErrIndexOutOfRange    = &Error{Code: CodeIndexOutOfRange}
	ErrTypeMismatch       = &Error{Code: CodeTypeMismatch}
	ErrInvalidCast        = &Error{Code: CodeInvalidCast}
	ErrNotSettable        = &Error{Code: CodeNotSettable}
	ErrUnsupported        = &Error{Code: CodeUnsupported}
	ErrMissingHostFeature = &Error{Code: CodeMissingHostFeature}
	ErrReentrant          = &Error{Code: CodeReentrant}
	ErrBusy               = &Error{Code: CodeBusy}
	ErrUnconnectedClip    = &Error{Code: CodeUnconnectedClip}
)

// New creates an Error with a formatted message.
func New(code Code, name, format string, args ...any) *Error {
	return &Error{Code: code, Name: name, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code from err. It returns "" if err is not a *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UnknownProperty reports an undeclared property name.
func UnknownProperty(name string) *Error {
	return New(CodeUnknownProperty, name, "property is not declared")
}

// UnknownParameter reports a parameter absent from its set.
func UnknownParameter(name string) *Error {
	return New(CodeUnknownParameter, name, "parameter does not exist")
}

// UnknownClip reports a clip absent from its effect.
func UnknownClip(name string) *Error {
	return New(CodeUnknownClip, name, "clip does not exist")
}

// IndexOutOfRange reports an index outside [0, n).
func IndexOutOfRange(name string, index, n int) *Error {
	return New(CodeIndexOutOfRange, name, "index %d outside [0, %d)", index, n)
}

// TypeMismatch reports a value or asserted kind of the wrong type.
func TypeMismatch(name, expected, actual string) *Error {
	return &Error{
		Code:     CodeTypeMismatch,
		Message:  "type disagrees with declaration",
		Name:     name,
		Expected: expected,
		Actual:   actual,
	}
}

// InvalidCast reports a conversion between distinct concrete variants.
func InvalidCast(name, expected, actual string) *Error {
	return &Error{
		Code:     CodeInvalidCast,
		Message:  "cannot convert between variants",
		Name:     name,
		Expected: expected,
		Actual:   actual,
	}
}

// NotSettable reports a write the caller is not permitted to make.
func NotSettable(name, reason string) *Error {
	return New(CodeNotSettable, name, "%s", reason)
}

// Unsupported reports an operation with no meaning for the target.
func Unsupported(name, op string) *Error {
	return New(CodeUnsupported, name, "%s is not supported", op)
}

// MissingHostFeature reports a dynamic override with no implementation.
func MissingHostFeature(name, op string) *Error {
	return New(CodeMissingHostFeature, name, "%s is not implemented by this host", op)
}

// Reentrant reports a mutation from within a notification for the same target.
func Reentrant(name string) *Error {
	return New(CodeReentrant, name, "mutation from inside its own notification")
}

// IsUnsupported returns true if err is an Unsupported error.
func IsUnsupported(err error) bool { return errors.Is(err, ErrUnsupported) }

// IsTypeMismatch returns true if err is a TypeMismatch error.
func IsTypeMismatch(err error) bool { return errors.Is(err, ErrTypeMismatch) }

// IsFatalToEffect returns true if the error should stop further evaluation
// of the effect that produced it without affecting other effects.
func IsFatalToEffect(err error) bool {
	switch CodeOf(err) {
	case CodeUnsupported, CodeTypeMismatch, CodeInvalidCast:
		return true
	default:
		return false
	}
}
