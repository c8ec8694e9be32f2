package configtypes

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Validate validates service configuration
func (c *ServiceConfig) Validate() error {
	if c == nil {
		return nil
	}

	serverPort, err := listenPort("server.listen", c.Server.Listen)
	if err != nil {
		return err
	}
	if time.Duration(c.Server.Timeout) < 0 {
		return fmt.Errorf("server.timeout must be >= 0")
	}
	if c.Server.MaxBodySize < 0 {
		return fmt.Errorf("server.max_body_size must be >= 0, got %d", c.Server.MaxBodySize)
	}

	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0, got %d", c.Redis.DB)
	}
	if time.Duration(c.Redis.Timeout) < 0 {
		return fmt.Errorf("redis.timeout must be >= 0")
	}

	if c.Pagination.WindowSize < 0 {
		return fmt.Errorf("pagination.window_size must be >= 0, got %d", c.Pagination.WindowSize)
	}
	if time.Duration(c.Pagination.CacheTTL) < 0 {
		return fmt.Errorf("pagination.cache_ttl must be >= 0")
	}
	for i, s := range c.Pagination.Signatures {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("pagination.signatures[%d] must not be empty", i)
		}
	}

	if c.Metrics.Enabled {
		metricsPort, err := listenPort("metrics.listen", c.Metrics.Listen)
		if err != nil {
			return err
		}
		if metricsPort == serverPort {
			return fmt.Errorf("metrics.listen port (%d) must differ from server.listen port (%d)", metricsPort, serverPort)
		}
		if c.Metrics.Path != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("metrics.path must start with '/', got '%s'", c.Metrics.Path)
		}
	}

	return c.Log.Validate()
}

// Validate validates logging configuration
func (c *LogConfig) Validate() error {
	validLogLevels := map[string]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}
	for field, level := range map[string]string{
		"log.level":         c.Level,
		"log.console.level": c.Console.Level,
		"log.file.level":    c.File.Level,
	} {
		if level != "" && !validLogLevels[level] {
			return fmt.Errorf("%s must be one of: debug, info, warn, error, got '%s'", field, level)
		}
	}

	if c.Console.Enabled && c.Console.Format != "" &&
		c.Console.Format != LogFormatJSON && c.Console.Format != LogFormatConsole {
		return fmt.Errorf("log.console.format must be 'json' or 'console', got '%s'", c.Console.Format)
	}

	if c.File.Enabled {
		if c.File.Path == "" {
			return fmt.Errorf("log.file.path must be specified when file logging is enabled")
		}
		if c.File.Format != "" && c.File.Format != LogFormatJSON && c.File.Format != LogFormatText {
			return fmt.Errorf("log.file.format must be 'json' or 'text', got '%s'", c.File.Format)
		}
		r := c.File.Rotation
		if r.MaxSize < 0 || r.MaxAge < 0 || r.MaxBackups < 0 {
			return fmt.Errorf("log.file.rotation values must be >= 0")
		}
	}

	return nil
}

// listenPort parses ":8080", "host:8080" or "8080" and checks the port range.
func listenPort(field, listen string) (int, error) {
	if listen == "" {
		return 0, fmt.Errorf("%s must be specified", field)
	}

	portStr := listen
	if strings.Contains(listen, ":") {
		_, p, err := net.SplitHostPort(listen)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", field, err)
		}
		portStr = p
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: port %q is not a number", field, portStr)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s port must be between 1 and 65535, got %d", field, port)
	}
	return port, nil
}
