package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ofxhost/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Golden string // golden trace directory; empty skips trace comparison
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir>...",
		Short: "Run host scenarios",
		Long: `Run YAML scenarios against the host.

Each scenario names a schema directory and a plugin, drives an effect
instance through a list of steps and checks expected values, error codes
and assertions. With --golden, each trace is also compared with
<golden>/<scenario name>.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  ofxhost test ./scenarios
  ofxhost test ./scenarios/blur.yaml --golden ./golden
  ofxhost test ./scenarios --golden ./golden --update
  ofxhost test ./scenarios --filter "blur*" --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Golden, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files (requires --golden)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by file name glob")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	if opts.Update && opts.Golden == "" {
		return f.Fail(ExitCommandError, ErrCodeUsage, "--update requires --golden", nil)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return f.Fail(ExitCommandError, ErrCodeUsage, fmt.Sprintf("scenario path not found: %s", p), nil)
		}
	}

	files, err := harness.DiscoverScenarios(paths...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	files, err = filterScenarios(files, opts.Filter)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, err.Error(), nil)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		sr := runScenario(cmd.Context(), opts, file)
		f.VerboseLog("%s: pass=%t", file, sr.Pass)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if f.JSON() {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		writeTestText(f, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total))
	}
	return nil
}

func filterScenarios(files []string, filter string) ([]string, error) {
	if filter == "" {
		return files, nil
	}
	var out []string
	for _, file := range files {
		base := filepath.Base(file)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		matched, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			out = append(out, file)
		}
	}
	return out, nil
}

// runScenario loads, runs and checks one scenario file.
func runScenario(ctx context.Context, opts *TestOptions, file string) ScenarioResult {
	if ctx == nil {
		ctx = context.Background()
	}
	sr := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.Run(ctx, scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = result.Errors

	if opts.Golden != "" {
		if msg := checkGolden(opts, scenario, result); msg != "" {
			sr.Errors = append(sr.Errors, msg)
		}
	}
	sr.Pass = len(sr.Errors) == 0
	return sr
}

// checkGolden compares (or, with --update, rewrites) the golden trace.
func checkGolden(opts *TestOptions, scenario *harness.Scenario, result *harness.Result) string {
	data, err := harness.NewTraceSnapshot(scenario, result).MarshalTrace()
	if err != nil {
		return fmt.Sprintf("failed to marshal trace: %v", err)
	}
	path := filepath.Join(opts.Golden, scenario.Name+".golden")

	if opts.Update {
		if err := os.MkdirAll(opts.Golden, 0o755); err != nil {
			return fmt.Sprintf("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Sprintf("failed to write golden file: %v", err)
		}
		return ""
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Sprintf("golden file %s not found (run with --update to create it)", path)
	}
	if err != nil {
		return fmt.Sprintf("failed to read golden file: %v", err)
	}
	if !bytes.Equal(want, data) {
		return "trace does not match golden file (run with --update to regenerate)"
	}
	return ""
}

func writeTestText(f *OutputFormatter, result TestResult) {
	w := f.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	for _, sr := range result.Scenarios {
		if sr.Pass {
			fmt.Fprintf(w, "✓ %s\n", sr.Name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
