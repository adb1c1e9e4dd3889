// Package logger holds the process-wide zap logger and shortcuts to it.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger = zap.NewNop()

// InitLogger replaces the global logger. In stdio mode stdout carries the MCP
// protocol, so console output goes to stderr.
func InitLogger(cfg *config.LoggingConfig, mode config.ServerMode) error {
	l, err := NewLogger(cfg, mode == config.ServerModeSTDIO)
	if err != nil {
		return err
	}
	globalLogger = l
	return nil
}

// NewLogger builds a zap logger from cfg. stderrOnly moves console output off stdout.
func NewLogger(cfg *config.LoggingConfig, stderrOnly bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}

	encoding, encoderConfig, err := encoder(cfg)
	if err != nil {
		return nil, err
	}

	outputs, errorOutputs, err := outputPaths(cfg, stderrOnly)
	if err != nil {
		return nil, err
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: errorOutputs,
	}

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	l, err := zapConfig.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

func encoder(cfg *config.LoggingConfig) (string, zapcore.EncoderConfig, error) {
	switch cfg.Format {
	case "json":
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return "json", ec, nil
	case "console", "":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		if cfg.Color {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		ec.EncodeCaller = zapcore.ShortCallerEncoder
		ec.EncodeDuration = zapcore.StringDurationEncoder
		return "console", ec, nil
	default:
		return "", zapcore.EncoderConfig{}, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
}

// outputPaths returns the log and error sinks. A file sink is created up front
// and truncated unless appending. There is always at least one sink.
func outputPaths(cfg *config.LoggingConfig, stderrOnly bool) (outputs, errorOutputs []string, err error) {
	console := "stdout"
	if stderrOnly {
		console = "stderr"
	}
	if !cfg.DisableConsole {
		outputs = append(outputs, console)
		errorOutputs = append(errorOutputs, "stderr")
	}

	if cfg.OutputPath != "" {
		if dir := filepath.Dir(cfg.OutputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
		if !cfg.AppendToFile {
			_ = os.Remove(cfg.OutputPath)
		}
		outputs = append(outputs, cfg.OutputPath)
		errorOutputs = append(errorOutputs, cfg.OutputPath)
	}

	if len(outputs) == 0 {
		outputs = []string{console}
	}
	if len(errorOutputs) == 0 {
		errorOutputs = []string{"stderr"}
	}
	return outputs, errorOutputs, nil
}

// SetLogger replaces the global logger, nil restores the no-op logger
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	globalLogger = l
}

func GetLogger() *zap.Logger { return globalLogger }

func Debug(msg string, fields ...zap.Field) { globalLogger.Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { globalLogger.Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { globalLogger.Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { globalLogger.Error(msg, fields...) }

// Fatal logs and exits the process
func Fatal(msg string, fields ...zap.Field) { globalLogger.Fatal(msg, fields...) }

// With creates a child logger with additional fields
func With(fields ...zap.Field) *zap.Logger { return globalLogger.With(fields...) }

// Sync flushes any buffered log entries
func Sync() error { return globalLogger.Sync() }
