package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a scenario over the harness test plugins.
func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	schemas, err := filepath.Abs(pluginsDir)
	require.NoError(t, err)
	src := fmt.Sprintf("name: %s\ndescription: reads the blur radius\nschemas: %s\nplugin: com.example.Blur\n%s", name, schemas, body)
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

const passingSteps = `steps:
  - op: get
    param: radius
    expect: 2
`

const failingSteps = `steps:
  - op: get
    param: radius
    expect: 7
`

func TestTest_HarnessScenariosWithGolden(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--golden", goldenDir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ blur_keyframes")
	assert.Contains(t, out, "✓ generic_access")
	assert.Contains(t, out, "✓ grade_clone")
	assert.Contains(t, out, "3 passed, 0 failed, 3 total")
}

func TestTest_JSON(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--format", "json")
	require.NoError(t, err)

	var result TestResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Passed)
	for _, sr := range result.Scenarios {
		assert.True(t, sr.Pass, sr.Name)
	}
}

func TestTest_Failure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "ok", passingSteps)
	writeScenario(t, dir, "wrong", failingSteps)

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✓ ok")
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "step 1 (get): expected 7, got 2")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTest_Filter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "blur_ok", passingSteps)
	writeScenario(t, dir, "other_wrong", failingSteps)

	out, err := execute(t, "test", dir, "--filter", "blur*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	_, err = execute(t, "test", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_LoadErrorFailsScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: broken\nbogus: 1\n"), 0o644))

	out, err := execute(t, "test", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_GoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	golden := filepath.Join(dir, "golden")
	writeScenario(t, dir, "snap", passingSteps)

	out, err := execute(t, "test", dir, "--golden", golden)
	require.Error(t, err)
	assert.Contains(t, out, "run with --update to create it")

	_, err = execute(t, "test", dir, "--golden", golden, "--update")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(golden, "snap.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "snap"`)

	_, err = execute(t, "test", dir, "--golden", golden)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(golden, "snap.golden"), []byte("{}\n"), 0o644))
	out, err = execute(t, "test", dir, "--golden", golden)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTest_UpdateRequiresGolden(t *testing.T) {
	_, err := execute(t, "test", scenariosDir, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_MissingPath(t *testing.T) {
	out, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenario path not found")
}

func TestTest_EmptyDirectory(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}
