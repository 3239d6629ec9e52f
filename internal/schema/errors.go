package schema

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes shared by the loader, the validator and the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeNoPlugins   = "E007" // No plugin definitions

	// Plugin validation errors (E201-E209)
	ErrCodeUnknownKind      = "E201" // unknown parameter type
	ErrCodeDefaultRange     = "E202" // default outside hard range
	ErrCodeDisplayRange     = "E203" // display range outside hard range
	ErrCodeNoOptions        = "E204" // choice without options
	ErrCodeChoiceDefault    = "E205" // choice default out of range
	ErrCodeUnknownComponent = "E206" // unknown pixel component
	ErrCodeNoOutputClip     = "E207" // missing Output clip
	ErrCodeDimension        = "E208" // composite default has wrong dimension
	ErrCodeMinMax           = "E209" // min greater than max
)

// CompileError is a schema error with the CUE position it refers to.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

func newError(code, field string, pos token.Pos, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Field: field, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error, field string) *CompileError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Code: ErrCodeGeneric, Field: field, Message: err.Error()}
	}

	first := errs[0]
	ce := &CompileError{Code: ErrCodeGeneric, Field: field, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
