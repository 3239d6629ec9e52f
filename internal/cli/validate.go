package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ofxhost/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool          `json:"valid"`
	Plugins []string      `json:"plugins,omitempty"`
	Hash    string        `json:"hash,omitempty"`
	Errors  []SchemaError `json:"errors,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	FailFast bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate plugin schemas",
		Long: `Compile and validate the CUE plugin schemas in a directory.

Every plugin is checked: parameter kinds, defaults and display ranges
against hard ranges, choice options, pixel components and the Output clip.
All errors are reported unless --fail-fast is given.

Exit codes:
  0 - All schemas valid
  1 - One or more schema errors
  2 - Command error (directory not found, no CUE files)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "stop at the first plugin with errors")

	return cmd
}

func runValidate(opts *ValidateOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	mode := schema.LoadModeCollectAll
	if opts.FailFast {
		mode = schema.LoadModeFailFast
	}

	res, errs := schema.LoadDir(dir, mode)
	if len(errs) > 0 {
		se := schemaErrors(errs)
		if res == nil && exitCodeFor(se[0].Code) == ExitCommandError {
			return f.Fail(ExitCommandError, se[0].Code, se[0].Message, nil)
		}
		return outputValidationErrors(f, se)
	}

	f.VerboseLog("Found %d CUE file(s) in %s", res.FileCount, dir)
	result := ValidationResult{Valid: true, Hash: res.Hash}
	for _, d := range res.Plugins {
		result.Plugins = append(result.Plugins, d.ID())
	}

	if f.JSON() {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "✓ All schemas valid (%d plugin(s))\n", len(result.Plugins))
	if f.Verbose {
		fmt.Fprintf(f.Writer, "  hash: %s\n", result.Hash)
	}
	return nil
}

func outputValidationErrors(f *OutputFormatter, errs []SchemaError) error {
	exit := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if f.JSON() {
		resp := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}
		if err := f.encode(resp); err != nil {
			return err
		}
		return exit
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(f.Writer, "%s:%d\n", e.File, e.Line)
		}
		if e.Field != "" {
			fmt.Fprintf(f.Writer, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
		} else {
			fmt.Fprintf(f.Writer, "  %s: %s\n\n", e.Code, e.Message)
		}
	}
	return exit
}
