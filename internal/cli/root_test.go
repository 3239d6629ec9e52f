package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ofxhost", cmd.Use)
	assert.Contains(t, cmd.Long, "CUE")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"describe", "validate", "eval", "test", "inspect"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestEvalCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	evalCmd, _, err := cmd.Find([]string{"eval"})
	require.NoError(t, err)

	for _, name := range []string{"plugin", "param", "time", "from", "key", "save"} {
		assert.NotNil(t, evalCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "0", evalCmd.Flags().Lookup("time").DefValue)
}

func TestInspectCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	inspectCmd, _, err := cmd.Find([]string{"inspect"})
	require.NoError(t, err)

	dbFlag := inspectCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	for _, name := range []string{"golden", "update", "filter"} {
		assert.NotNil(t, testCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "validate", pluginsDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootOptions_LoggerDefault(t *testing.T) {
	opts := &RootOptions{}
	assert.NotNil(t, opts.Logger())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))

	wrapped := fmt.Errorf("run: %w", WrapExitError(ExitFailure, "failed", errors.New("cause")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "run: failed: cause", wrapped.Error())
}
