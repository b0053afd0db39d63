// Package config handles configuration loading for the vectable CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/hupe1980/vectable"
)

// Config represents the complete CLI configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig selects the database and how new fragments are written.
type DatabaseConfig struct {
	URI         string `mapstructure:"uri"`
	Compression string `mapstructure:"compression"`
}

// StorageConfig tunes the storage backend and resource limits.
type StorageConfig struct {
	Region             string `mapstructure:"region"`
	DynamoDBTable      string `mapstructure:"dynamodb_table"`
	BlockCacheBytes    int64  `mapstructure:"block_cache_bytes"`
	MemoryLimitBytes   int64  `mapstructure:"memory_limit_bytes"`
	IOLimitBytesPerSec int64  `mapstructure:"io_limit_bytes_per_sec"`
	MaxIndexBuilds     int    `mapstructure:"max_index_builds"`
}

// LogConfig configures library logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Global configuration instance
var cfg *Config

// Get returns the current configuration.
func Get() *Config {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URI:         DefaultDatabaseURI(),
			Compression: DefaultCompression,
		},
		Storage: StorageConfig{
			MaxIndexBuilds: DefaultMaxIndexBuilds,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads configuration from file and environment variables.
func Load(configFile string) error {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(DefaultConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("VECTABLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug("No config file found, using defaults")
	} else {
		log.Debug("Loaded config from", "file", viper.ConfigFileUsed())
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("database.uri", DefaultDatabaseURI())
	viper.SetDefault("database.compression", DefaultCompression)
	viper.SetDefault("storage.region", "")
	viper.SetDefault("storage.dynamodb_table", "")
	viper.SetDefault("storage.block_cache_bytes", 0)
	viper.SetDefault("storage.memory_limit_bytes", 0)
	viper.SetDefault("storage.io_limit_bytes_per_sec", 0)
	viper.SetDefault("storage.max_index_builds", DefaultMaxIndexBuilds)
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.format", DefaultLogFormat)
}

// ConfigFilePath returns the path of the loaded config file, or empty string if none.
func ConfigFilePath() string {
	return viper.ConfigFileUsed()
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// Options converts the configuration into Connect options. logger may be
// nil to disable library logging.
func (c *Config) Options(logger *vectable.Logger) ([]vectable.Option, error) {
	compression, err := vectable.ParseCompression(c.Database.Compression)
	if err != nil {
		return nil, err
	}

	opts := []vectable.Option{
		vectable.WithCompression(compression),
		vectable.WithLogger(logger),
		vectable.WithMemoryLimit(c.Storage.MemoryLimitBytes),
		vectable.WithIOLimit(c.Storage.IOLimitBytesPerSec),
		vectable.WithBlockCache(c.Storage.BlockCacheBytes),
	}
	if c.Storage.MaxIndexBuilds > 0 {
		opts = append(opts, vectable.WithMaxConcurrentBuilds(c.Storage.MaxIndexBuilds))
	}
	if c.Storage.Region != "" {
		opts = append(opts, vectable.WithRegion(c.Storage.Region))
	}
	if c.Storage.DynamoDBTable != "" {
		opts = append(opts, vectable.WithDynamoDBCommit(c.Storage.DynamoDBTable))
	}
	return opts, nil
}
