package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Engine    EngineConfig
	Downloads DownloadsConfig
	Staging   StagingConfig
	Catalog   CatalogConfig
	PDB       PDBConfig
	Log       LogConfig
	Mock      MockConfig
}

// EngineConfig holds the remote engine endpoint settings.
type EngineConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (e EngineConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// DownloadsConfig holds result placement settings.
type DownloadsConfig struct {
	Dir string
}

// StagingConfig holds the scratch location for result handles. An empty
// dir selects the system temp directory.
type StagingConfig struct {
	Dir string
}

// CatalogConfig points at an external command catalog. An empty path
// selects the embedded one.
type CatalogConfig struct {
	Path string
}

// PDBConfig holds structure file locations.
type PDBConfig struct {
	Dir string
}

// LogConfig holds log sink settings.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
}

// MockConfig holds settings for the local mock engine.
type MockConfig struct {
	Addr         string
	LatencyMS    int    `mapstructure:"latency_ms"`
	FailWith     string `mapstructure:"fail_with"`
	MaxFileBytes int64  `mapstructure:"max_file_bytes"`
}

// Load reads configuration from file and env. Env var overrides use prefix PDBENGINE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("engine.base_url", "http://localhost:8000")
	v.SetDefault("engine.timeout_seconds", 600)
	v.SetDefault("downloads.dir", "downloads")
	v.SetDefault("staging.dir", "")
	v.SetDefault("catalog.path", "")
	v.SetDefault("pdb.dir", ".")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(os.Getenv("HOME"), ".local", "share", "pdbengine", "pdbengine.log"))
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("mock.addr", ":8000")
	v.SetDefault("mock.latency_ms", 0)
	v.SetDefault("mock.fail_with", "")
	v.SetDefault("mock.max_file_bytes", 104857600)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("PDBENGINE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "pdbengine"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PDBENGINE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
