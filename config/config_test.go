package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig("")
	require.Equal(t, "crmd", cfg.System.Appid)
	require.Equal(t, "postgres", cfg.Database.Type)
	require.Equal(t, 1816, cfg.Web.Port)
	require.True(t, cfg.System.SeedDemo)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	cfile := filepath.Join(dir, "crmd.yml")
	content := []byte(`
web:
  host: 127.0.0.1
  port: 9090
database:
  type: sqlite
  name: testdb
logger:
  mode: production
  file_enable: false
`)
	require.NoError(t, os.WriteFile(cfile, content, 0o600))

	cfg := LoadConfig(cfile)
	require.Equal(t, "127.0.0.1", cfg.Web.Host)
	require.Equal(t, 9090, cfg.Web.Port)
	require.Equal(t, "sqlite", cfg.Database.Type)
	require.Equal(t, "testdb", cfg.Database.Name)
	require.Equal(t, "production", cfg.Logger.Mode)
	require.False(t, cfg.Logger.FileEnable)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CRMD_WEB_PORT", "7070")
	t.Setenv("CRMD_DB_TYPE", "sqlite")
	t.Setenv("CRMD_SYSTEM_SEED_DEMO", "false")

	cfg := LoadConfig("")
	require.Equal(t, 7070, cfg.Web.Port)
	require.Equal(t, "sqlite", cfg.Database.Type)
	require.False(t, cfg.System.SeedDemo)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadConfig("/nonexistent/crmd.yml")
	require.Equal(t, DefaultAppConfig.Web.Port, cfg.Web.Port)
}
