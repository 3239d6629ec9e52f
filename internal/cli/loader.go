package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/schema"
)

// SchemaError is the reportable form of a schema load or validation error.
type SchemaError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func (e SchemaError) String() string {
	loc := ""
	if e.File != "" {
		loc = fmt.Sprintf("%s:%d:%d: ", e.File, e.Line, e.Column)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s%s: %s: %s", loc, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s%s: %s", loc, e.Code, e.Message)
}

// schemaErrors converts loader errors. Anything that is not a
// CompileError is reported under the generic code.
func schemaErrors(errs []error) []SchemaError {
	out := make([]SchemaError, 0, len(errs))
	for _, err := range errs {
		var ce *schema.CompileError
		if !errors.As(err, &ce) {
			out = append(out, SchemaError{Code: schema.ErrCodeGeneric, Message: err.Error()})
			continue
		}
		se := SchemaError{Code: ce.Code, Field: ce.Field, Message: ce.Message}
		if ce.Pos.IsValid() {
			se.File, se.Line, se.Column = ce.Pos.Filename(), ce.Pos.Line(), ce.Pos.Column()
		}
		out = append(out, se)
	}
	return out
}

// exitCodeFor separates problems with the arguments (the directory is
// missing or holds no schema files) from problems in the schemas.
func exitCodeFor(code string) int {
	switch code {
	case schema.ErrCodeNotFound, schema.ErrCodeNoFiles, schema.ErrCodeScanError:
		return ExitCommandError
	default:
		return ExitFailure
	}
}

// loadSchemas loads every plugin in dir. Any error is written through f and
// returned as an ExitError, so callers only see a fully valid schema set.
func loadSchemas(f *OutputFormatter, dir string) (*schema.Result, error) {
	res, errs := schema.LoadDir(dir, schema.LoadModeCollectAll)
	if len(errs) > 0 {
		se := schemaErrors(errs)
		var details any
		if len(se) > 1 {
			details = se
		}
		return nil, f.Fail(exitCodeFor(se[0].Code), se[0].Code, se[0].String(), details)
	}
	f.VerboseLog("Loaded %d plugin(s) from %d CUE file(s) in %s", len(res.Plugins), res.FileCount, dir)
	return res, nil
}

// findPlugin looks up id in res.
func findPlugin(f *OutputFormatter, res *schema.Result, id string) (*effect.Descriptor, error) {
	if d := res.Plugin(id); d != nil {
		return d, nil
	}
	ids := make([]string, len(res.Plugins))
	for i, d := range res.Plugins {
		ids[i] = d.ID()
	}
	return nil, f.Fail(ExitCommandError, ErrCodeUsage,
		fmt.Sprintf("plugin %q not found", id), map[string]any{"available": ids})
}
