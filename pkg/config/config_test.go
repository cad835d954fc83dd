package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, ":8080", GetServerAddress())
	assert.Equal(t, 30*24*time.Hour, GetSeconds("cache.redis.identity_expire"))
	assert.True(t, GetBool("export.thank_you_slide"))
	assert.Equal(t, 64, GetInt("parser.max_depth"))
}

func TestGetDSN(t *testing.T) {
	t.Cleanup(func() { Set("database.type", "sqlite") })

	Set("database.type", "mysql")
	assert.Contains(t, GetDSN(), "@tcp(localhost:5432)/slide_stream?charset=utf8mb4")

	Set("database.type", "postgres")
	assert.Contains(t, GetDSN(), "dbname=slide_stream sslmode=disable")

	Set("database.type", "oracle")
	assert.Empty(t, GetDSN())
}

func TestValidate(t *testing.T) {
	t.Cleanup(func() { Set("database.type", "sqlite") })

	Set("database.type", "sqlite")
	assert.NoError(t, Validate())

	Set("database.type", "oracle")
	assert.ErrorIs(t, Validate(), ErrInvalidDatabaseConfig)
}

func TestInit_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\nllm:\n  model: tiny\n"), 0644))

	require.NoError(t, Init(path))
	assert.Equal(t, ":9090", GetServerAddress())
	assert.Equal(t, "tiny", GetString("llm.model"))
	// 未在文件中出现的键仍有默认值
	assert.Equal(t, "sqlite", GetString("database.type"))
}
