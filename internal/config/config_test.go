package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jfrlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 8, c.Cache.Size)
	assert.Equal(t, 10*time.Minute, c.Cache.TTL)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, "jfrlens", c.Metrics.Namespace)
	d, err := c.Analysis.Interval()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, d)
	assert.NoError(t, c.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
analysis:
  dimensions: [cpu, alloc]
  async_profiler_interval: 20ms
cache:
  size: 2
  ttl: 30s
log:
  level: debug
  development: true
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu", "alloc"}, c.Analysis.Dimensions)
	d, err := c.Analysis.Interval()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, d)
	assert.Equal(t, 2, c.Cache.Size)
	assert.Equal(t, 30*time.Second, c.Cache.TTL)
	assert.True(t, c.Log.Development)
	assert.Equal(t, "jfrlens", c.Metrics.Namespace, "unset values keep defaults")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "analysis: [", "yaml"},
		{"bad interval", "analysis:\n  async_profiler_interval: soon\n", "async_profiler_interval"},
		{"negative interval", "analysis:\n  async_profiler_interval: -1ms\n", "must be positive"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
