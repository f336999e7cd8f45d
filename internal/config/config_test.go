package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "loadflow:job", cfg.Redis.KeyPrefix)
	assert.Equal(t, 100*time.Millisecond, cfg.Redis.PollInterval)
	assert.Equal(t, 3, cfg.Redis.MaxConsecutiveErrors)
	assert.Equal(t, "loadflow", cfg.Metrics.Namespace)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Equal(t, []float64{0, 0.5, 1}, cfg.Demo.Values)
	assert.Equal(t, "@every 200ms", cfg.Demo.Schedule)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loadwatch.yaml")
	configYAML := `
redis:
  addr: redis:6380
  poll_interval: 50ms
  max_consecutive_errors: 5
metrics:
  addr: ":9100"
logging:
  development: true
demo:
  values: [0, 0.25, 0.75, 1]
  schedule: "@every 1s"
  result: done
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 50*time.Millisecond, cfg.Redis.PollInterval)
	assert.Equal(t, 5, cfg.Redis.MaxConsecutiveErrors)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, []float64{0, 0.25, 0.75, 1}, cfg.Demo.Values)
	assert.Equal(t, "@every 1s", cfg.Demo.Schedule)
	assert.Equal(t, "done", cfg.Demo.Result)
	assert.Equal(t, "loadflow:job", cfg.Redis.KeyPrefix)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LOADWATCH_REDIS_ADDR", "10.0.0.1:6379")
	t.Setenv("LOADWATCH_METRICS_NAMESPACE", "worker")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, "worker", cfg.Metrics.Namespace)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Load(New(), "")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"poll interval", func(c *Config) { c.Redis.PollInterval = 0 }, "redis.poll_interval"},
		{"timeout", func(c *Config) { c.Redis.Timeout = -time.Second }, "redis.timeout"},
		{"max errors", func(c *Config) { c.Redis.MaxConsecutiveErrors = 0 }, "redis.max_consecutive_errors"},
		{"namespace", func(c *Config) { c.Metrics.Namespace = "" }, "metrics.namespace"},
		{"schedule", func(c *Config) { c.Demo.Schedule = "" }, "demo.schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
