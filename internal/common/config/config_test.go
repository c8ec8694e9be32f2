package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgecomet/pagination/internal/common/configtypes"
)

func TestLoadServiceConfig(t *testing.T) {
	cfg, err := LoadServiceConfig("testdata/service.yaml", zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, ":10110", cfg.Server.Listen)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout.ToDuration())
	assert.Equal(t, DefaultMaxBodySize, cfg.Server.MaxBodySize)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "blog:", cfg.Redis.KeyPrefix)
	assert.Equal(t, DefaultRedisTimeout, cfg.Redis.Timeout.ToDuration())

	assert.Equal(t, 6, cfg.Pagination.WindowSize)
	assert.Equal(t, 2*time.Hour, cfg.Pagination.CacheTTL.ToDuration())
	assert.Equal(t, []string{"mk_blog", "[portfolio"}, cfg.Pagination.Signatures)
	assert.True(t, cfg.Pagination.InjectScript)

	assert.Equal(t, configtypes.LogLevelWarn, cfg.Log.Level)
	assert.Equal(t, configtypes.LogFormatJSON, cfg.Log.Console.Format)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, DefaultMetricsPath, cfg.Metrics.Path)
	assert.Equal(t, DefaultNamespace, cfg.Metrics.Namespace)
}

func TestParseServiceConfig_Defaults(t *testing.T) {
	cfg, err := ParseServiceConfig([]byte("{}\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultListen, cfg.Server.Listen)
	assert.Equal(t, DefaultServerTimeout, cfg.Server.Timeout.ToDuration())
	assert.Equal(t, DefaultWindowSize, cfg.Pagination.WindowSize)
	assert.Equal(t, DefaultCacheTTL, cfg.Pagination.CacheTTL.ToDuration())
	assert.Empty(t, cfg.Redis.Addr)
	assert.True(t, cfg.Log.Console.Enabled)
	assert.Equal(t, configtypes.LogFormatConsole, cfg.Log.Console.Format)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestParseServiceConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{
			name:   "unknown field",
			yaml:   "pagination:\n  windw_size: 5\n",
			errMsg: "unknown configuration field",
		},
		{
			name:   "bad duration",
			yaml:   "pagination:\n  cache_ttl: forever\n",
			errMsg: "failed to parse YAML",
		},
		{
			name:   "validation failure",
			yaml:   "pagination:\n  window_size: -3\n",
			errMsg: "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseServiceConfig([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestLoadServiceConfig_MissingFile(t *testing.T) {
	_, err := LoadServiceConfig(filepath.Join(t.TempDir(), "absent.yaml"), zap.NewNop())
	assert.ErrorContains(t, err, "config file does not exist")
}

func TestLoadServiceConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0o644))

	_, err := LoadServiceConfig(path, zap.NewNop())
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadServiceConfig_ShippedExample(t *testing.T) {
	cfg, err := LoadServiceConfig(filepath.Join("..", "..", "..", "configs", "example", "pagination-service.yaml"), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, DefaultWindowSize, cfg.Pagination.WindowSize)
	assert.Equal(t, DefaultCacheTTL, cfg.Pagination.CacheTTL.ToDuration())
	assert.Equal(t, DefaultMaxBodySize, cfg.Server.MaxBodySize)
	assert.False(t, cfg.Log.File.Enabled)
}
