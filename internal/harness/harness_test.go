package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

// TestScenarios_Golden runs every scenario under testdata/scenarios and
// compares its trace with testdata/golden/<name>.golden.
func TestScenarios_Golden(t *testing.T) {
	paths, err := DiscoverScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_FailedExpectationIsReported(t *testing.T) {
	s := loadTestScenario(t, "blur_keyframes")
	s.Steps = []Step{{Op: OpGet, Param: "radius", Expect: 3}}
	s.Assertions = nil

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "step 1 (get): expected 3, got 2")
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "2", result.Trace[0].Value)
}

func TestRun_UnexpectedErrorIsReported(t *testing.T) {
	s := loadTestScenario(t, "blur_keyframes")
	s.Steps = []Step{{Op: OpGet, Param: "size"}}
	s.Assertions = nil

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error")
	assert.Equal(t, "UNKNOWN_PARAMETER", result.Trace[0].Error)
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s := loadTestScenario(t, "blur_keyframes")
	s.Steps = []Step{{Op: OpGet, Param: "radius", Error: "TYPE_MISMATCH"}}
	s.Assertions = nil

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error TYPE_MISMATCH, got success")
}

func TestRun_BadValueIsReported(t *testing.T) {
	s := loadTestScenario(t, "blur_keyframes")
	s.Steps = []Step{{Op: OpSet, Param: "iterations", Value: 2.5}}
	s.Assertions = nil

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "is not an integer")
	assert.Empty(t, result.Trace[0].Error, "conversion failures carry no status code")
}

func TestRun_UnknownPlugin(t *testing.T) {
	s := loadTestScenario(t, "blur_keyframes")
	s.Plugin = "com.example.Missing"

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "com.example.Missing")
}

func TestRun_BrokenSchemaDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte("plugin: {"), 0644))

	s := loadTestScenario(t, "blur_keyframes")
	s.Schemas = dir

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load schemas")
}

func TestRun_FinalStateMismatch(t *testing.T) {
	s := loadTestScenario(t, "grade_clone")
	s.Assertions = []Assertion{{Type: AssertFinalState, Param: "invert", Expect: true}}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "final_state")
}

func TestMarshalTrace_MatchesGolden(t *testing.T) {
	s := loadTestScenario(t, "generic_access")
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	snapshot := TraceSnapshot{ScenarioName: s.Name, Plugin: s.Plugin, Trace: result.Trace}
	data, err := snapshot.MarshalTrace()
	require.NoError(t, err)

	golden, err := os.ReadFile(filepath.Join("testdata", "golden", s.Name+".golden"))
	require.NoError(t, err)
	assert.Equal(t, string(golden), string(data))
}
