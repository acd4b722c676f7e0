package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "assessment-backend"
storage:
  provider: "memory"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, 300000, cfg.Uploads.UploadURLTTL)
	assert.Equal(t, 3600000, cfg.Uploads.DownloadURLTTL)
	assert.Equal(t, int64(25<<20), cfg.Uploads.MaxFileSize)
	assert.Equal(t, "configs/catalog.json", cfg.Catalog.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFileS3RequiresBucketAndRegion(t *testing.T) {
	t.Setenv("RESPONSES_BUCKET", "")
	path := writeConfig(t, `
storage:
  provider: "s3"
  s3:
    region: "eu-central-1"
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

func TestLoadFromFileRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
storage:
  provider: "carrier-pigeon"
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.provider")
}

func TestLoadFromFileFallbackNeedsRedisAddress(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "")
	path := writeConfig(t, `
storage:
  provider: "memory"
fallback:
  enabled: true
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback.redis.address")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, GetDuration(300000))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
