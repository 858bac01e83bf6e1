// Package logger provides a process-wide sugared logger used across Takagi.
//
// It wraps go.uber.org/zap behind a small set of package-level functions so
// call sites never need to carry a logger value through every function
// signature. Initialize must be called once at process startup; before
// that, calls are silently routed to a non-nop development logger so that
// package init-time logging and tests never panic on a nil logger.
package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
)

var current atomic.Pointer[zap.SugaredLogger]

func init() {
	l, _ := zap.NewDevelopment()
	current.Store(l.Sugar())
}

// Initialize configures the process-wide logger. level is one of
// "debug", "info", "warn", "error" (case-insensitive; an unrecognized
// value keeps the mode's default level, debug in dev mode and info
// otherwise). In dev mode, output is human-readable and
// colorized; otherwise it is JSON suitable for log aggregation.
func Initialize(level string, dev bool) error {
	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	current.Store(l.Sugar())
	return nil
}

// Sync flushes any buffered log entries. Call it before process exit.
func Sync() {
	if l := current.Load(); l != nil {
		_ = l.Sync()
	}
}

func sugar() *zap.SugaredLogger {
	l := current.Load()
	if l == nil {
		// Should not happen after init(), but guards against a zero-value
		// package state under test harnesses that strip init().
		l, _ = zap.NewProduction()
		return l.Sugar()
	}
	return l
}

// Debug logs a debug-level message built from the given arguments.
func Debug(args ...any) { sugar().Debug(args...) }

// Debugf logs a debug-level message with printf-style formatting.
func Debugf(template string, args ...any) { sugar().Debugf(template, args...) }

// Debugw logs a debug-level message with structured key/value pairs.
func Debugw(msg string, keysAndValues ...any) { sugar().Debugw(msg, keysAndValues...) }

// Info logs an info-level message built from the given arguments.
func Info(args ...any) { sugar().Info(args...) }

// Infof logs an info-level message with printf-style formatting.
func Infof(template string, args ...any) { sugar().Infof(template, args...) }

// Infow logs an info-level message with structured key/value pairs.
func Infow(msg string, keysAndValues ...any) { sugar().Infow(msg, keysAndValues...) }

// Warnf logs a warn-level message with printf-style formatting.
func Warnf(template string, args ...any) { sugar().Warnf(template, args...) }

// Warnw logs a warn-level message with structured key/value pairs.
func Warnw(msg string, keysAndValues ...any) { sugar().Warnw(msg, keysAndValues...) }

// Error logs an error-level message built from the given arguments.
func Error(args ...any) { sugar().Error(args...) }

// Errorf logs an error-level message with printf-style formatting.
func Errorf(template string, args ...any) { sugar().Errorf(template, args...) }

// Errorw logs an error-level message with structured key/value pairs.
func Errorw(msg string, keysAndValues ...any) { sugar().Errorw(msg, keysAndValues...) }

// Fatalf logs an error-level message then calls os.Exit(1).
func Fatalf(template string, args ...any) {
	sugar().Errorf(template, args...)
	Sync()
	os.Exit(1)
}
