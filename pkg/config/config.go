// Package config provides configuration management for the heap dump tooling.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Decode   DecodeConfig   `mapstructure:"decode"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
}

// DecodeConfig holds heap dump decoding configuration.
type DecodeConfig struct {
	DataDir          string `mapstructure:"data_dir"`
	MaxWorkers       int    `mapstructure:"max_workers"`       // parallel dump exports
	BatchSize        int    `mapstructure:"batch_size"`        // rows per database batch
	ProgressInterval int64  `mapstructure:"progress_interval"` // records between progress logs
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // sqlite, mysql or postgres
	Path     string `mapstructure:"path"` // for sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Type              string `mapstructure:"type"` // cos or local
	Bucket            string `mapstructure:"bucket"`
	Region            string `mapstructure:"region"`
	SecretID          string `mapstructure:"secret_id"`
	SecretKey         string `mapstructure:"secret_key"`
	Domain            string `mapstructure:"domain"`             // e.g., "myqcloud.com"
	Scheme            string `mapstructure:"scheme"`             // e.g., "https" or "http"
	LocalPath         string `mapstructure:"local_path"`         // for local storage
	ReportCompression string `mapstructure:"report_compression"` // gzip, zstd or none
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Determine config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/hprof-analysis")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// Check if it's a "file not found" error (either viper's type or os error)
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, use defaults
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			// File specified but doesn't exist, use defaults
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow environment variables to override config
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Decode defaults
	v.SetDefault("decode.data_dir", "./data")
	v.SetDefault("decode.max_workers", 4)
	v.SetDefault("decode.batch_size", 1000)
	v.SetDefault("decode.progress_interval", 100000)

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./heap-export.db")
	v.SetDefault("database.max_conns", 10)

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")
	v.SetDefault("storage.report_compression", "gzip")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "./logs")
	v.SetDefault("log.format", "text")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "mysql", "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	// Storage config validation is delegated to storage package

	if c.Decode.MaxWorkers < 1 {
		return fmt.Errorf("max workers must be at least 1")
	}
	if c.Decode.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}

	return nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	if c.Decode.DataDir == "" {
		return nil
	}
	return os.MkdirAll(c.Decode.DataDir, 0755)
}

// GetDumpDir returns the per-dump working directory path.
func (c *Config) GetDumpDir(dumpUUID string) string {
	return filepath.Join(c.Decode.DataDir, dumpUUID)
}
