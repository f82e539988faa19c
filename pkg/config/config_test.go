package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Create a minimal config file
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
storage:
  type: local
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Check default values
	assert.Equal(t, "./data", cfg.Decode.DataDir)
	assert.Equal(t, 4, cfg.Decode.MaxWorkers)
	assert.Equal(t, 1000, cfg.Decode.BatchSize)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "./heap-export.db", cfg.Database.Path)
}

func TestLoad_CustomValues(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
decode:
  data_dir: "/tmp/data"
  max_workers: 10
  batch_size: 250
database:
  type: postgres
  host: db.example.com
  port: 5432
  database: heap_export
  user: admin
  password: secret
storage:
  type: local
  local_path: /tmp/storage
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/data", cfg.Decode.DataDir)
	assert.Equal(t, 10, cfg.Decode.MaxWorkers)
	assert.Equal(t, 250, cfg.Decode.BatchSize)
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "heap_export", cfg.Database.Database)
}

func TestLoad_InvalidDatabaseType(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
database:
  type: oracle
  host: localhost
storage:
  type: local
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	_, err = Load(configFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

// Note: Storage validation tests live in the internal/storage package

func TestLoad_COSWithCredentials(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
storage:
  type: cos
  bucket: test-bucket
  region: ap-guangzhou
  secret_id: test-id
  secret_key: test-key
`
	err := os.WriteFile(configFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, "cos", cfg.Storage.Type)
	assert.Equal(t, "test-bucket", cfg.Storage.Bucket)
}

func TestValidate_EmptyHost(t *testing.T) {
	cfg := &Config{
		Decode: DecodeConfig{
			MaxWorkers: 4,
			BatchSize:  1000,
		},
		Database: DatabaseConfig{
			Type: "postgres",
			Host: "",
		},
		Storage: StorageConfig{
			Type: "local",
		},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database host is required")
}

func TestValidate_SQLiteNeedsPath(t *testing.T) {
	cfg := &Config{
		Decode: DecodeConfig{
			MaxWorkers: 4,
			BatchSize:  1000,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
		},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database path is required")
}

func TestValidate_InvalidWorkerCount(t *testing.T) {
	cfg := &Config{
		Decode: DecodeConfig{
			MaxWorkers: 0,
			BatchSize:  1000,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: "./heap-export.db",
		},
	}

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max workers must be at least 1")
}

func TestGetDumpDir(t *testing.T) {
	cfg := &Config{
		Decode: DecodeConfig{
			DataDir: "/tmp/data",
		},
	}

	dumpDir := cfg.GetDumpDir("dump-uuid-123")
	assert.Equal(t, "/tmp/data/dump-uuid-123", dumpDir)
}

func TestEnsureDataDir(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "decode", "data")

	cfg := &Config{
		Decode: DecodeConfig{
			DataDir: dataDir,
		},
	}

	err := cfg.EnsureDataDir()
	require.NoError(t, err)

	_, err = os.Stat(dataDir)
	assert.NoError(t, err)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	// Should not return error, use defaults
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadFromReader(t *testing.T) {
	content := []byte(`
database:
  type: mysql
  host: mysql.local
storage:
  type: local
`)
	cfg, err := LoadFromReader("yaml", content)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "mysql.local", cfg.Database.Host)
}
