// Package logging builds the zap logger shared by every casbot command.
// Console output narrates each step; an optional JSON file under the scratch
// directory keeps a machine-readable copy of the same entries.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a subsystem. Loggers are derived with Named so every entry
// carries its category.
type Category string

const (
	CategoryBoot       Category = "boot"
	CategoryScheduler  Category = "scheduler"
	CategoryIdea       Category = "idea"
	CategoryReflection Category = "reflection"
	CategoryVision     Category = "vision"
	CategoryDriver     Category = "driver"
	CategoryBrowser    Category = "browser"
	CategoryHistory    Category = "history"
)

// Options controls logger construction.
type Options struct {
	Level   string // debug, info, warn, error
	Verbose bool   // forces debug
	File    string // optional JSON log file
}

// New builds a logger writing human-readable lines to stderr and, when
// opts.File is set, JSON lines to that file.
func New(opts Options) (*zap.Logger, error) {
	level := ParseLevel(opts.Level)
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	enabler := zap.NewAtomicLevelAt(level)

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleCfg.CallerKey = ""

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), enabler),
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(f),
			enabler,
		))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// ParseLevel maps a config string onto a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// For returns the category logger derived from base. A nil base yields a no-op
// logger so components can be constructed without logging in tests.
func For(base *zap.Logger, cat Category) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(string(cat))
}
