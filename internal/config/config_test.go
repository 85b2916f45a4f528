package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	require.Equal(t, 100, cfg.Upstream.PageSize)
	require.Equal(t, 7, cfg.Collect.WindowDays)
	require.Equal(t, 7, cfg.Cleanup.GraceDays)
	require.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
upstream:
  pageSize: 50
collect:
  excludeKeywords: ["경비", "청소"]
cleanup:
  graceDays: 14
logging:
  level: debug
`), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()
	require.Equal(t, 50, cfg.Upstream.PageSize)
	require.Equal(t, []string{"경비", "청소"}, cfg.Collect.ExcludeKeywords)
	require.Equal(t, 14, cfg.Cleanup.GraceDays)
	require.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	require.Equal(t, 7, cfg.Collect.WindowDays)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  dsn: postgres://file/db
`), 0o600))
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env/db")
	t.Setenv(serviceKeyEnv, "env-key")

	cfg := Load()
	require.Equal(t, "postgres://env/db", cfg.Database.DSN)
	require.Equal(t, "env-key", cfg.Upstream.ServiceKey)
}
