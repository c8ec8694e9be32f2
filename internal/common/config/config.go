package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/edgecomet/pagination/internal/common/configtypes"
	"github.com/edgecomet/pagination/internal/common/yamlutil"
	"github.com/edgecomet/pagination/pkg/types"
)

// Type aliases for backward compatibility
type (
	ServiceConfig    = configtypes.ServiceConfig
	ServerConfig     = configtypes.ServerConfig
	RedisConfig      = configtypes.RedisConfig
	PaginationConfig = configtypes.PaginationConfig
	LogConfig        = configtypes.LogConfig
	MetricsConfig    = configtypes.MetricsConfig
)

const (
	DefaultListen        = ":10110"
	DefaultServerTimeout = 10 * time.Second
	DefaultMaxBodySize   = 4 * 1024 * 1024
	DefaultRedisTimeout  = 200 * time.Millisecond
	DefaultWindowSize    = 8
	DefaultCacheTTL      = time.Hour
	DefaultMetricsPath   = "/metrics"
	DefaultNamespace     = "pagination"
)

// applyDefaults fills unset optional fields
func applyDefaults(cfg *ServiceConfig) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = types.Duration(DefaultServerTimeout)
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}

	if cfg.Redis.Timeout == 0 {
		cfg.Redis.Timeout = types.Duration(DefaultRedisTimeout)
	}

	if cfg.Pagination.WindowSize == 0 {
		cfg.Pagination.WindowSize = DefaultWindowSize
	}
	if cfg.Pagination.CacheTTL == 0 {
		cfg.Pagination.CacheTTL = types.Duration(DefaultCacheTTL)
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultNamespace
	}

	// If both outputs are disabled (zero values), enable console by default
	if !cfg.Log.Console.Enabled && !cfg.Log.File.Enabled {
		cfg.Log.Console.Enabled = true
	}
	if cfg.Log.Console.Format == "" {
		cfg.Log.Console.Format = configtypes.LogFormatConsole
	}
	if cfg.Log.File.Format == "" {
		cfg.Log.File.Format = configtypes.LogFormatText
	}
}

// ParseServiceConfig decodes, defaults and validates a YAML document
func ParseServiceConfig(data []byte) (*ServiceConfig, error) {
	var cfg ServiceConfig
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadServiceConfig loads pagination service configuration from YAML file
func LoadServiceConfig(path string, logger *zap.Logger) (*ServiceConfig, error) {
	logger.Info("Loading pagination service configuration", zap.String("path", path))

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseServiceConfig(data)
	if err != nil {
		return nil, err
	}

	logger.Info("Pagination service configuration loaded successfully",
		zap.String("listen", cfg.Server.Listen),
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.Int("window_size", cfg.Pagination.WindowSize))

	return cfg, nil
}
