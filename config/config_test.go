package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigForTest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "my_ledger.csv", cfg.Ledger.CSVPath)
	assert.Equal(t, "ledger-db", cfg.Ledger.StorePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Simulation.BatchID)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("LEDGER_HOME", "/var/lib/pharma")
	path := writeConfigForTest(t, `
ledger:
  csv_path: "${LEDGER_HOME}/ledger.csv"
  store_path: "/tmp/db"
log:
  level: debug
simulation:
  batch_id: "Batch 7"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/pharma/ledger.csv", cfg.Ledger.CSVPath)
	assert.Equal(t, "/tmp/db", cfg.Ledger.StorePath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "Batch 7", cfg.Simulation.BatchID)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfigForTest(t, "log:\n  level: info\n")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvBatchID, "B9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "B9", cfg.Simulation.BatchID)
}

func TestLoadRejectsUnknownLevel(t *testing.T) {
	path := writeConfigForTest(t, "log:\n  level: loud\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(EnvCSVPath+"=from-dotenv.csv\n"), 0o600))
	t.Setenv(EnvCSVPath, "")
	require.NoError(t, os.Unsetenv(EnvCSVPath))

	require.NoError(t, LoadEnv(envFile, filepath.Join(dir, "missing.env")))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.csv", cfg.Ledger.CSVPath)
}
