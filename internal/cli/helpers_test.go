package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	pluginsDir   = filepath.Join("..", "harness", "testdata", "plugins")
	scenariosDir = filepath.Join("..", "harness", "testdata", "scenarios")
	goldenDir    = filepath.Join("..", "harness", "testdata", "golden")
	invalidDir   = filepath.Join("..", "schema", "testdata", "invalid")
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type rawResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// decodeData parses a JSON envelope and decodes its data into v.
func decodeData(t *testing.T, out string, v any) rawResponse {
	t.Helper()
	var resp rawResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if v != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
	return resp
}
