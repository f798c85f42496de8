package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/advcases/internal/abi"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "advcases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_NoPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, slog.LevelInfo, cfg.Level())

	id, err := cfg.CallerID()
	require.NoError(t, err)
	assert.Equal(t, abi.DevAccount("alice"), id)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
database: ":memory:"
driver: sqlite
log_level: debug
format: json
caller: bob
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.Database)
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "127.0.0.1:8545", cfg.Listen, "unset keys keep defaults")
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "bob", cfg.Caller)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "databse: x.db\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "databse")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Driver = "postgres"
	cfg.Format = "xml"
	cfg.LogLevel = "trace"
	cfg.Caller = "mallory"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{`driver "postgres"`, `format "xml"`, `log_level "trace"`, "caller"} {
		assert.ErrorContains(t, err, want)
	}
}
