package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/edgecomet/pagination/internal/common/configtypes"
)

// DynamicLogger wraps zap.Logger with per-output levels that can be switched
// at runtime. The service starts at INFO so startup is always visible and
// drops to its configured level once serving.
type DynamicLogger struct {
	*zap.Logger
	consoleLevel *zap.AtomicLevel
	fileLevel    *zap.AtomicLevel
	configured   configtypes.LogConfig
}

// NewLogger creates a logger writing to the enabled outputs of cfg.
func NewLogger(cfg configtypes.LogConfig) (*DynamicLogger, error) {
	global := parseLogLevel(cfg.Level)
	dl := &DynamicLogger{configured: cfg}

	var cores []zapcore.Core
	if cfg.Console.Enabled {
		level := zap.NewAtomicLevelAt(resolveLogLevel(cfg.Console.Level, global))
		dl.consoleLevel = &level
		cores = append(cores, zapcore.NewCore(createEncoder(cfg.Console.Format), zapcore.Lock(os.Stdout), level))
	}
	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("file.path must be specified when file logging is enabled")
		}
		level := zap.NewAtomicLevelAt(resolveLogLevel(cfg.File.Level, global))
		dl.fileLevel = &level
		cores = append(cores, zapcore.NewCore(createEncoder(cfg.File.Format), createFileWriter(cfg.File.Path, cfg.File.Rotation), level))
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("at least one log output (console or file) must be enabled")
	}

	dl.Logger = zap.New(zapcore.NewTee(cores...))
	return dl, nil
}

// NewLoggerWithStartupOverride creates a logger that runs at INFO until
// SwitchToConfiguredLevel is called, when the configured level is quieter.
func NewLoggerWithStartupOverride(cfg configtypes.LogConfig) (*DynamicLogger, error) {
	if parseLogLevel(cfg.Level) <= zap.InfoLevel {
		return NewLogger(cfg)
	}

	startup := cfg
	startup.Level = configtypes.LogLevelInfo
	if startup.Console.Level == "" {
		startup.Console.Level = configtypes.LogLevelInfo
	}
	if startup.File.Level == "" {
		startup.File.Level = configtypes.LogLevelInfo
	}

	dl, err := NewLogger(startup)
	if err != nil {
		return nil, err
	}
	dl.configured = cfg
	return dl, nil
}

// NewDefaultLogger creates a debug console logger for use before config is loaded.
func NewDefaultLogger() (*DynamicLogger, error) {
	return NewLogger(configtypes.LogConfig{
		Level: configtypes.LogLevelDebug,
		Console: configtypes.ConsoleLogConfig{
			Enabled: true,
			Format:  configtypes.LogFormatConsole,
		},
	})
}

// SwitchToConfiguredLevel applies the configured levels.
func (dl *DynamicLogger) SwitchToConfiguredLevel() {
	global := parseLogLevel(dl.configured.Level)
	dl.Info("Switching logger to configured level", zap.String("level", dl.configured.Level))

	if dl.consoleLevel != nil {
		dl.consoleLevel.SetLevel(resolveLogLevel(dl.configured.Console.Level, global))
	}
	if dl.fileLevel != nil {
		dl.fileLevel.SetLevel(resolveLogLevel(dl.configured.File.Level, global))
	}
}

// EnsureInfoLevelForShutdown lowers quieter outputs to INFO so the shutdown
// sequence is logged.
func (dl *DynamicLogger) EnsureInfoLevelForShutdown() {
	changed := false
	for _, level := range []*zap.AtomicLevel{dl.consoleLevel, dl.fileLevel} {
		if level != nil && level.Level() > zap.InfoLevel {
			level.SetLevel(zap.InfoLevel)
			changed = true
		}
	}
	if changed {
		dl.Info("Switched to INFO level for shutdown visibility")
	}
}

func parseLogLevel(level string) zapcore.Level {
	switch level {
	case configtypes.LogLevelDebug:
		return zap.DebugLevel
	case configtypes.LogLevelWarn:
		return zap.WarnLevel
	case configtypes.LogLevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// resolveLogLevel uses the output's own level when set, else the global one.
func resolveLogLevel(outputLevel string, global zapcore.Level) zapcore.Level {
	if outputLevel != "" {
		return parseLogLevel(outputLevel)
	}
	return global
}

// createEncoder builds a JSON encoder, a plain text encoder for files or a
// colored console encoder.
func createEncoder(format string) zapcore.Encoder {
	if format == configtypes.LogFormatJSON {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if format == configtypes.LogFormatText {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func createFileWriter(path string, rotation configtypes.RotationConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotation.MaxSize,
		MaxAge:     rotation.MaxAge,
		MaxBackups: rotation.MaxBackups,
		Compress:   rotation.Compress,
	})
}
