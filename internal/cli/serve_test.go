package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand_StopsOnCancel(t *testing.T) {
	db := loadFixtures(t)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs([]string{"serve", "--db", db, "--addr", "127.0.0.1:0"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := cmd.ExecuteContext(ctx)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Listening on 127.0.0.1:")
	assert.Contains(t, stderr.String(), "server stopped gracefully")
}

func TestServeCommand_MissingDatabase(t *testing.T) {
	_, _, err := execute(t, "serve", "--db", filepath.Join(t.TempDir(), "missing.db"), "--addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestServeCommand_BadAddress(t *testing.T) {
	db := loadFixtures(t)

	_, _, err := execute(t, "serve", "--db", db, "--addr", "not-an-address")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to listen")
}
