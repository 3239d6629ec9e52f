package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_Text(t *testing.T) {
	out, err := execute(t, "describe", pluginsDir)
	require.NoError(t, err)

	assert.Contains(t, out, "com.example.Blur (Blur) v1.0")
	assert.Contains(t, out, "group: Filter")
	assert.Contains(t, out, "Alpha [optional, mask]")
	assert.Contains(t, out, "options=draft|good|best")
	assert.Contains(t, out, "range=[0, 100]")
	assert.Contains(t, out, "com.example.Grade (Grade)")
	assert.Contains(t, out, "static")
}

func TestDescribe_JSON(t *testing.T) {
	out, err := execute(t, "describe", pluginsDir, "--format", "json", "--plugin", "com.example.Grade")
	require.NoError(t, err)

	var plugins []PluginSummary
	resp := decodeData(t, out, &plugins)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, plugins, 1)

	grade := plugins[0]
	assert.Equal(t, "com.example.Grade", grade.ID)
	require.Len(t, grade.Clips, 2)
	assert.Equal(t, []string{"RGBA"}, grade.Clips[0].Components)

	require.Len(t, grade.Params, 3)
	lift := grade.Params[0]
	assert.Equal(t, "lift", lift.Name)
	assert.Equal(t, "composite", lift.Kind)
	assert.Equal(t, "rgb", lift.Layout)
	assert.Equal(t, [][]float64{{-1, 1}, {-1, 1}, {-1, 1}}, lift.Range)

	center := grade.Params[1]
	assert.False(t, center.Animates)

	invert := grade.Params[2]
	assert.Equal(t, "boolean", invert.Kind)
	assert.Equal(t, "false", invert.Default)
	assert.Empty(t, invert.Range)
}

func TestDescribe_UnknownPlugin(t *testing.T) {
	out, err := execute(t, "describe", pluginsDir, "--plugin", "com.example.Nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `plugin "com.example.Nope" not found`)
}

func TestDescribe_MissingDirectory(t *testing.T) {
	out, err := execute(t, "describe", "/nonexistent/schema/dir")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, out, "not found")
}

func TestDescribe_InvalidSchemas(t *testing.T) {
	_, err := execute(t, "describe", invalidDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
