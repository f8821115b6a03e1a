package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RENT_CONFIG", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./rent.db", cfg.Database.Path)
	assert.Equal(t, "USD", cfg.Reporting.Currency)
	assert.Equal(t, int64(1), cfg.Reporting.CompanyID)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FileThenEnv(t *testing.T) {
	// GIVEN: a config file and one env override
	path := filepath.Join(t.TempDir(), "rent.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9000

[reporting]
currency = "UAH"
company_id = 3
`), 0o644))
	t.Setenv("RENT_CONFIG", path)
	t.Setenv("RENT_SERVER_PORT", "9100")

	// WHEN
	cfg, err := Load()

	// THEN: env beats file, file beats defaults
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "UAH", cfg.Reporting.Currency)
	assert.Equal(t, int64(3), cfg.Reporting.CompanyID)
	assert.Equal(t, "./rent.db", cfg.Database.Path)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("RENT_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))

	_, err := Load()

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	ok := Config{
		Server:    ServerConfig{Port: 80},
		Database:  DatabaseConfig{Path: "x.db"},
		Reporting: ReportingConfig{Currency: "USD"},
	}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Server.Port = 70000
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Reporting.Currency = ""
	assert.Error(t, bad.Validate())
}
