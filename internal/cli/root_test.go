package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yravipati/countydata/internal/config"
)

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// loadFixtures loads the lookup fixtures into a fresh database and returns
// its path.
func loadFixtures(t *testing.T) string {
	t.Helper()

	db := filepath.Join(t.TempDir(), "data.db")
	_, _, err := execute(t, "load", "--db", db,
		filepath.Join("..", "lookup", "testdata", "zip_county.csv"),
		filepath.Join("..", "lookup", "testdata", "county_health_rankings.csv"),
	)
	require.NoError(t, err)
	return db
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "countydata", cmd.Use)
	assert.Contains(t, cmd.Long, "all-TEXT tables")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"load", "serve", "lookup", "describe", "test"}

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

	for _, name := range []string{"db", "config", "env-file"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	tests := []struct {
		command string
		flags   []string
	}{
		{"load", []string{"table"}},
		{"serve", []string{"addr"}},
		{"lookup", []string{"zip", "measure", "coffee"}},
		{"test", []string{"update", "filter"}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{tt.command})
			require.NoError(t, err)
			for _, name := range tt.flags {
				assert.NotNil(t, sub.Flags().Lookup(name), "--%s", name)
			}
		})
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.True(t, isValidFormat("csv"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, _, err := execute(t, "--format", "invalid", "describe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMissingConfigFile(t *testing.T) {
	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "describe")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigNotFound)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigFileSetsDatabase(t *testing.T) {
	db := loadFixtures(t)
	cfgPath := filepath.Join(t.TempDir(), "countydata.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("db_path: "+db+"\n"), 0o644))

	out, _, err := execute(t, "--config", cfgPath, "describe")
	require.NoError(t, err)
	assert.Contains(t, out, "zip_county  4 rows")
}

func TestVerboseEnablesDebugLogs(t *testing.T) {
	db := filepath.Join(t.TempDir(), "data.db")

	_, stderr, err := execute(t, "--verbose", "load", "--db", db,
		filepath.Join("..", "lookup", "testdata", "zip_county.csv"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "loading source")
}
