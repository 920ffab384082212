package core

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupConfigFromEnv(t *testing.T) {
	addr := "localhost:11111"
	os.Setenv("EDS_SERVICE_ADDRESS", addr)
	os.Setenv("EDS_WORKER_CONCURRENCY", "4")
	defer os.Unsetenv("EDS_SERVICE_ADDRESS")
	defer os.Unsetenv("EDS_WORKER_CONCURRENCY")

	cfg := LoadBaseConfigFromENV()

	assert.Equal(t, addr, cfg.Addr)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 30, cfg.Worker.StaleTaskMinutes)
	assert.Equal(t, "eds", cfg.Redis.Prefix())
}

func TestParseConfigFormats(t *testing.T) {
	tomlRaw := []byte(`
addr = ":8080"

[log]
level = "info"

[storage]
root = "/data/eds"

[worker]
stale_task_minutes = 10

[vision]
global_max_concurrency = 3
`)
	cfg, err := ParseConfig("config.toml", tomlRaw)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/data/eds", cfg.Storage.Root)
	assert.Equal(t, 10, cfg.Worker.StaleTaskMinutes)
	assert.Equal(t, 3, cfg.Vision.GlobalMaxConcurrency)
	assert.Equal(t, 2, cfg.Worker.Concurrency)

	yamlRaw := []byte(`
addr: ":9090"
redis:
  addr: "127.0.0.1:6379"
  key_prefix: "eds_test"
storage:
  s3:
    bucket: "datasets"
    use_path_style: true
limit:
  generate_per_minute: 5
`)
	cfg, err = ParseConfig("config.yml", yamlRaw)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "eds_test", cfg.Redis.Prefix())
	require.NotNil(t, cfg.Storage.S3)
	assert.True(t, cfg.Storage.S3.UsePathStyle)
	assert.Equal(t, 5, cfg.Limit.GeneratePerMinute)
	assert.Equal(t, "./local-db", cfg.Storage.Root)
}
