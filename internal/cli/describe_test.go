package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeCommand_ListTables(t *testing.T) {
	db := loadFixtures(t)

	out, _, err := execute(t, "describe", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "county_health_rankings  5 rows\nzip_county  4 rows\n", out)
}

func TestDescribeCommand_Table(t *testing.T) {
	db := loadFixtures(t)

	out, _, err := execute(t, "describe", "--db", db, "zip_county")
	require.NoError(t, err)
	assert.Contains(t, out, "Table: zip_county\n")
	assert.Contains(t, out, "Rows:  4\n")
	assert.Contains(t, out, "  0  zip  TEXT\n")
	assert.Contains(t, out, "  9  default_city  TEXT\n")
}

func TestDescribeCommand_JSON(t *testing.T) {
	db := loadFixtures(t)

	out, _, err := execute(t, "--format", "json", "describe", "--db", db, "county_health_rankings")
	require.NoError(t, err)

	var resp struct {
		Data TableSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "county_health_rankings", resp.Data.Table)
	assert.Equal(t, int64(5), resp.Data.Rows)
	require.Len(t, resp.Data.Columns, 14)
	assert.Equal(t, "confidence_interval_lower_bound", resp.Data.Columns[10].Name)
	for _, c := range resp.Data.Columns {
		assert.Equal(t, "TEXT", c.Type)
	}
}

func TestDescribeCommand_CSVList(t *testing.T) {
	db := loadFixtures(t)

	out, _, err := execute(t, "--format", "csv", "describe", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "table,rows\ncounty_health_rankings,5\nzip_county,4\n", out)
}

func TestDescribeCommand_EmptyDatabase(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "data.db")
	src := writeFile(t, dir, "a.csv", "x\n")
	_, _, err := execute(t, "load", "--db", db, src)
	require.NoError(t, err)

	out, _, err := execute(t, "describe", "--db", db, "a")
	require.NoError(t, err)
	assert.Contains(t, out, "Rows:  0\n")
}

func TestDescribeCommand_UnknownTable(t *testing.T) {
	db := loadFixtures(t)

	_, _, err := execute(t, "describe", "--db", db, "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "table not found: missing")
}
