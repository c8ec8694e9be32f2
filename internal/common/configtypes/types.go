package configtypes

import (
	"github.com/edgecomet/pagination/pkg/types"
)

// Log level constants
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Log format constants
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
	LogFormatText    = "text"
)

// ServiceConfig is the root configuration of the pagination service
type ServiceConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Pagination PaginationConfig `yaml:"pagination"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type ServerConfig struct {
	Listen      string         `yaml:"listen"`
	Timeout     types.Duration `yaml:"timeout"`
	MaxBodySize int            `yaml:"max_body_size"` // bytes, 0 = default
}

// RedisConfig configures the totals cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr      string         `yaml:"addr"`
	Password  string         `yaml:"password"`
	DB        int            `yaml:"db"`
	KeyPrefix string         `yaml:"key_prefix"`
	Timeout   types.Duration `yaml:"timeout"` // per-operation timeout
}

// PaginationConfig tunes the rewriter and head-link emitter
type PaginationConfig struct {
	WindowSize   int            `yaml:"window_size"`
	CacheTTL     types.Duration `yaml:"cache_ttl"`
	Signatures   []string       `yaml:"signatures"`    // first-page content markers implying pagination
	InjectScript bool           `yaml:"inject_script"` // append the ajax-disable script to processed documents
}

type LogConfig struct {
	Level   string           `yaml:"level"`
	Console ConsoleLogConfig `yaml:"console"`
	File    FileLogConfig    `yaml:"file"`
}

type ConsoleLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"`
	Level   string `yaml:"level,omitempty"`
}

type FileLogConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Path     string         `yaml:"path"`
	Format   string         `yaml:"format"`
	Level    string         `yaml:"level,omitempty"`
	Rotation RotationConfig `yaml:"rotation"`
}

type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`
	MaxAge     int  `yaml:"max_age"`
	MaxBackups int  `yaml:"max_backups"`
	Compress   bool `yaml:"compress"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}
