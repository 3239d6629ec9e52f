package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ofxhost/internal/store"
)

// saveKeyed evaluates a keyed radius with --save and returns the effect ID.
func saveKeyed(t *testing.T, db string) string {
	t.Helper()
	out, err := execute(t, "eval", pluginsDir,
		"--plugin", "com.example.Blur", "--param", "radius",
		"--key", "0=0", "--key", "10=100", "--time", "5",
		"--save", db, "--format", "json")
	require.NoError(t, err)

	var result EvalResult
	decodeData(t, out, &result)
	require.NotEmpty(t, result.SavedAs)
	return result.SavedAs
}

func TestInspect_ListAndShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "state.db")
	id := saveKeyed(t, db)

	out, err := execute(t, "inspect", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "com.example.Blur")
	assert.Contains(t, out, "t=5")

	out, err = execute(t, "inspect", "--db", db, id)
	require.NoError(t, err)
	assert.Contains(t, out, id+" (com.example.Blur)")
	assert.Contains(t, out, "radius")
	assert.Contains(t, out, "@10")
}

func TestInspect_JSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "state.db")
	id := saveKeyed(t, db)

	out, err := execute(t, "inspect", "--db", db, "--format", "json")
	require.NoError(t, err)
	var records []store.Record
	decodeData(t, out, &records)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)

	out, err = execute(t, "inspect", "--db", db, id, "--format", "json")
	require.NoError(t, err)
	var state store.EffectState
	decodeData(t, out, &state)
	assert.Equal(t, "com.example.Blur", state.PluginID)

	var radius *store.ParamState
	for i := range state.Params {
		if state.Params[i].Name == "radius" {
			radius = &state.Params[i]
		}
	}
	require.NotNil(t, radius)
	assert.Len(t, radius.Keyframes, 2)
}

func TestInspect_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "state.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "inspect", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No effects saved.")
}

func TestInspect_Errors(t *testing.T) {
	_, err := execute(t, "inspect", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	db := filepath.Join(t.TempDir(), "state.db")
	saveKeyed(t, db)
	out, err := execute(t, "inspect", "--db", db, "no-such-effect")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "effect no-such-effect not found")

	_, err = execute(t, "inspect")
	require.Error(t, err)
}
