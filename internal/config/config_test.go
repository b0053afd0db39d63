package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultCompression, cfg.Database.Compression)
	assert.Contains(t, cfg.Database.URI, "vectable")
	assert.Equal(t, DefaultMaxIndexBuilds, cfg.Storage.MaxIndexBuilds)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	assert.Equal(t, filepath.Join("/xdg/config", "vectable"), DefaultConfigDir())
	assert.Equal(t, filepath.Join("/xdg/data", "vectable", DefaultDataDirName), DefaultDatabaseURI())
}

func TestLoadWithConfigFile(t *testing.T) {
	viper.Reset()
	cfg = nil

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database:
  uri: s3://bucket/vectors
  compression: zstd
storage:
  region: eu-central-1
  dynamodb_table: commits
  block_cache_bytes: 67108864
log:
  level: debug
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	require.NoError(t, Load(configPath))
	loaded := Get()

	assert.Equal(t, "s3://bucket/vectors", loaded.Database.URI)
	assert.Equal(t, "zstd", loaded.Database.Compression)
	assert.Equal(t, "eu-central-1", loaded.Storage.Region)
	assert.Equal(t, "commits", loaded.Storage.DynamoDBTable)
	assert.Equal(t, int64(64<<20), loaded.Storage.BlockCacheBytes)
	assert.Equal(t, DefaultMaxIndexBuilds, loaded.Storage.MaxIndexBuilds)
	assert.Equal(t, "debug", loaded.Log.Level)
	assert.Equal(t, configPath, ConfigFilePath())

	opts, err := loaded.Options(nil)
	require.NoError(t, err)
	assert.Len(t, opts, 8)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	viper.Reset()
	cfg = nil

	t.Setenv("VECTABLE_DATABASE_URI", "memory://env")
	t.Setenv("VECTABLE_DATABASE_COMPRESSION", "none")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("log:\n  format: json\n"), 0o644))
	require.NoError(t, Load(configPath))

	loaded := Get()
	assert.Equal(t, "memory://env", loaded.Database.URI)
	assert.Equal(t, "none", loaded.Database.Compression)
	assert.Equal(t, "json", loaded.Log.Format)
}

func TestOptionsRejectsUnknownCompression(t *testing.T) {
	c := DefaultConfig()
	c.Database.Compression = "snappy"
	_, err := c.Options(nil)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
