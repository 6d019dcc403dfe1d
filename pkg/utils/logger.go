package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig configures optional file output with rotation.
type LogConfig struct {
	Level      string // debug, info, warn, error; empty follows the debug flag
	FilePath   string // empty logs to stderr only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewLoggerWithConfig is NewLogger plus a rotating log file when cfg.FilePath is set.
// Entries go to both stderr and the file. The returned cleanup closes the file.
func NewLoggerWithConfig(debug bool, cfg LogConfig) (*zap.Logger, func() error, error) {
	noop := func() error { return nil }
	if cfg.FilePath == "" && cfg.Level == "" {
		l, err := NewLogger(debug)
		return l, noop, err
	}

	level := parseLevel(cfg.Level, debug)
	encCfg := zap.NewProductionEncoderConfig()
	if debug {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(debug, encCfg), zapcore.Lock(os.Stderr), level),
	}
	cleanup := noop
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		// files always get JSON
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(lj), level))
		cleanup = lj.Close
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), cleanup, nil
}

func newEncoder(debug bool, cfg zapcore.EncoderConfig) zapcore.Encoder {
	if debug {
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}

func parseLevel(s string, debug bool) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	if debug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
