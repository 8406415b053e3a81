package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
staging:
  backend: memory
collectors:
  amo:
    dsn: ./amo.db
  validator:
    basedir: ./reports
formatters:
  csv:
    basedir: ./out
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Staging.Backend)
	assert.Equal(t, "sqlite3", cfg.Collectors.AMO.Driver, "driver defaulted")
	assert.Equal(t, "./amo.db", cfg.Collectors.AMO.DSN)
	assert.Equal(t, "./reports", cfg.Collectors.Validator.BaseDir)
	assert.Equal(t, "./out", cfg.Formatters.CSV.BaseDir)
}

func TestLoad_DefaultsBackendToMemory(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
collectors:
  amo:
    dsn: ./amo.db
  validator:
    basedir: ./reports
formatters:
  csv:
    basedir: ./out
`))
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Staging.Backend)
}

func TestLoad_SQLiteBackendRequiresPath(t *testing.T) {
	_, err := Load(writeConfig(t, `
staging:
  backend: sqlite
collectors:
  amo:
    dsn: ./amo.db
  validator:
    basedir: ./reports
formatters:
  csv:
    basedir: ./out
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging.path")
}

func TestLoad_MissingRequiredFieldFailsValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `
collectors:
  amo:
    dsn: ./amo.db
  validator: {}
formatters:
  csv:
    basedir: ./out
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoad_UnknownFieldFailsValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `
collectors:
  amo:
    dsn: ./amo.db
  validator:
    basedir: ./reports
  surprise:
    key: value
formatters:
  csv:
    basedir: ./out
`))
	require.Error(t, err)
}

func TestLoad_BadBackendFailsValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `
staging:
  backend: carrier-pigeon
collectors:
  amo:
    dsn: ./amo.db
  validator:
    basedir: ./reports
formatters:
  csv:
    basedir: ./out
`))
	require.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, `{not: [valid`))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
