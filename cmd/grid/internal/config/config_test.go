package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFs swaps AppFs for an in-memory filesystem for the duration of t.
func memFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	fs := afero.NewMemMapFs()
	AppFs = fs
	t.Cleanup(func() { AppFs = prev })
	return fs
}

// unset clears key and restores it when t ends.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadDefaults(t *testing.T) {
	memFs(t)
	for _, k := range []string{"GRID_SCHEMA", "GRID_DRIVER", "GRID_DSN", "GRID_FORMAT", "GRID_DEBUG", "GRID_SLOW_THRESHOLD", "DATABASE_URL"} {
		unset(t, k)
	}

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "schema.yaml", cfg.Schema)
	assert.Equal(t, "mysql", cfg.Driver)
	assert.Equal(t, "table", cfg.Format)
	assert.Empty(t, cfg.DSN)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowThreshold)
}

func TestLoadFile(t *testing.T) {
	fs := memFs(t)
	unset(t, "GRID_DRIVER")
	unset(t, "GRID_FORMAT")
	t.Setenv("GRID_DSN", "file:env.db")
	require.NoError(t, afero.WriteFile(fs, "/etc/grid.yaml", []byte(`
schema: /srv/shop.yaml
driver: sqlite
dsn: file:config.db
format: json
legacy_limit: true
slow_threshold: 1s
`), 0o644))

	cfg, err := Load(viper.New(), "/etc/grid.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/srv/shop.yaml", cfg.Schema)
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "file:env.db", cfg.DSN, "environment wins over the file")
	assert.Equal(t, "json", cfg.Format)
	assert.True(t, cfg.LegacyLimit)
	assert.Equal(t, time.Second, cfg.SlowThreshold)
}

func TestLoadEnvFiles(t *testing.T) {
	fs := memFs(t)
	unset(t, "GRID_DRIVER")
	unset(t, "GRID_SCHEMA")
	t.Setenv("GRID_FORMAT", "yaml")
	unset(t, "GRID_DSN")
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("GRID_DRIVER=postgres\nGRID_FORMAT=json\nGRID_SCHEMA=base.yaml\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, ".env.local", []byte("GRID_SCHEMA=local.yaml\nGRID_DSN=postgres://localhost/shop\n"), 0o644))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "yaml", cfg.Format, ".env does not override the environment")
	assert.Equal(t, "local.yaml", cfg.Schema)
	assert.Equal(t, "postgres://localhost/shop", cfg.DSN)
}

func TestLoadInvalid(t *testing.T) {
	memFs(t)
	unset(t, "GRID_FORMAT")
	t.Setenv("GRID_DRIVER", "oracle")

	_, err := Load(viper.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Driver")

	_, err = Load(viper.New(), "/missing.yaml")
	require.Error(t, err)
}
