package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand("1.2.3")

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand("dev")
	assert.Equal(t, "phpsniff", root.Name())

	expectedCommands := []string{"lint", "rules", "serve", "version"}
	for _, name := range expectedCommands {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, "Expected subcommand %s to be registered", name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.Len(t, root.Commands(), len(expectedCommands))

	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-format"))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "phpsniff version 1.2.3"), out)
}

func TestRootCommand_InvalidLogFormat(t *testing.T) {
	_, err := execute(t, "--log-format", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log format")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ErrViolationsFound, 1},
		{fmt.Errorf("%w: 3 errors", ErrViolationsFound), 1},
		{errors.New("failed to read"), 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "err=%v", tt.err)
	}
}
