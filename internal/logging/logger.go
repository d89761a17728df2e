// Package logging wraps logrus with leveled, structured logging helpers.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Config holds logger configuration.
type Config struct {
	Level      int    // logrus level, 0 uses InfoLevel
	Format     string // "json" or "text"
	Output     string // "stdout" or "file"
	OutputFile string // file path when Output is "file"
}

// Logger is a thin structured wrapper over a logrus logger.
type Logger struct {
	l *logrus.Logger
}

var std = &Logger{l: logrus.StandardLogger()}

// New configures the standard logger and returns it with a cleanup function.
func New(cfg *Config) (*Logger, func(), error) {
	cleanup := func() {}
	if cfg == nil {
		cfg = &Config{}
	}

	l := logrus.StandardLogger()
	l.SetLevel(levelFrom(cfg.Level))
	l.SetFormatter(formatterFrom(cfg.Format))

	var out io.Writer = os.Stdout
	if cfg.Output == "file" && cfg.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		cleanup = func() { _ = f.Close() }
	}
	l.SetOutput(out)

	return std, cleanup, nil
}

// StdLogger returns the process-wide logger.
func StdLogger() *Logger {
	return std
}

// Reconfigure reapplies level and format on the live logger, so config hot
// reloads take effect without a restart. Output destination changes still
// require one.
func (lg *Logger) Reconfigure(cfg *Config) {
	if cfg == nil {
		return
	}
	lg.l.SetLevel(levelFrom(cfg.Level))
	lg.l.SetFormatter(formatterFrom(cfg.Format))
}

func levelFrom(n int) logrus.Level {
	level := logrus.Level(n)
	if n <= 0 || level > logrus.TraceLevel {
		level = logrus.InfoLevel
	}
	return level
}

func formatterFrom(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{}
	}
	return &logrus.TextFormatter{FullTimestamp: true}
}

// fields converts trailing key-value pairs into logrus fields.
func fields(kv []any) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		f[key] = kv[i+1]
	}
	return f
}

func (lg *Logger) Debug(ctx context.Context, msg string, kv ...any) {
	lg.l.WithContext(ctx).WithFields(fields(kv)).Debug(msg)
}

func (lg *Logger) Info(ctx context.Context, msg string, kv ...any) {
	lg.l.WithContext(ctx).WithFields(fields(kv)).Info(msg)
}

func (lg *Logger) Warn(ctx context.Context, msg string, kv ...any) {
	lg.l.WithContext(ctx).WithFields(fields(kv)).Warn(msg)
}

func (lg *Logger) Error(ctx context.Context, msg string, kv ...any) {
	lg.l.WithContext(ctx).WithFields(fields(kv)).Error(msg)
}
