package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rent-engine/api"
	"github.com/xuri/excelize/v2"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func seededDB(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "rent.db")
	_, err := execute(t, "seed", "--db", db, "--log-level", "error")
	require.NoError(t, err)
	return db
}

func TestMigrate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rent.db")

	out, err := execute(t, "migrate", "--db", db)

	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1 (dirty: false)")
}

func TestReport_Table(t *testing.T) {
	db := seededDB(t)

	out, err := execute(t, "report", "--db", db, "--from", "2024-01-01", "--to", "2024-01-31")

	require.NoError(t, err)
	assert.Contains(t, out, "[2024-01-01, 2024-01-31]")
	assert.Contains(t, out, "Shop 101")
	assert.Contains(t, out, "Office 7 lease")
	assert.Contains(t, out, "No Active Contract")
	assert.Contains(t, out, "214.94")
}

func TestReport_JSON(t *testing.T) {
	db := seededDB(t)

	out, err := execute(t, "report", "--db", db, "--from", "2024-01-01", "--to", "2024-12-31", "--json")
	require.NoError(t, err)

	var resp api.AnalysisResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Segments, 38)
	assert.Equal(t, "USD", resp.Currency.Code)
}

func TestReport_XLSX(t *testing.T) {
	db := seededDB(t)
	path := filepath.Join(t.TempDir(), "q1.xlsx")

	out, err := execute(t, "report", "--db", db, "--from", "2024-01-01", "--to", "2024-03-31", "--xlsx", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 11 segments")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Segments")
}

func TestReport_Errors(t *testing.T) {
	db := seededDB(t)

	_, err := execute(t, "report", "--db", db, "--from", "2024-02-01", "--to", "2024-01-01")
	assert.ErrorContains(t, err, "invalid range")

	_, err = execute(t, "report", "--db", db, "--from", "01/02/2024")
	assert.ErrorContains(t, err, "--from")

	_, err = execute(t, "report", "--db", db, "--xlsx", "a.xlsx", "--json")
	assert.Error(t, err)
}

func TestSeed_File(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "rent.db")
	dataset := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(dataset, []byte(`{"currencies": [{"code": "USD", "symbol": "$"}]}`), 0o644))

	_, err := execute(t, "seed", "--db", db, "--file", dataset)
	require.NoError(t, err)

	// Seeding again hits the unique currency code unless reset.
	_, err = execute(t, "seed", "--db", db, "--file", dataset)
	assert.Error(t, err)
	_, err = execute(t, "seed", "--db", db, "--file", dataset, "--reset")
	assert.NoError(t, err)
}
