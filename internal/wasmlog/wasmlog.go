// Package wasmlog wraps zap behind a small interface so the core packages
// (internal/wasm, internal/engine/interpreter) depend on a logging
// contract rather than on zap directly, mirroring the teacher's decoupling
// of its api package from any one implementation.
package wasmlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the subset of *zap.Logger the core packages need. Successful
// loads log at Debug; VM creation/reset, registration and successful
// instantiation at Info; load, validate and instantiate failures at Warn
// (SPEC_FULL.md §10).
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
}

type zapLogger struct{ l *zap.Logger }

func (z *zapLogger) Debug(msg string, fields ...zap.Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...zap.Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...zap.Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...zap.Field) { z.l.Error(msg, fields...) }
func (z *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{l: z.l.With(fields...)}
}

// New builds a Logger at the given level ("debug", "info", "warn",
// "error"; anything else defaults to "info"), writing human-readable
// console output, matching wippyai/wasm-runtime's CLI logging setup.
func New(level string) Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	l, err := cfg.Build()
	if err != nil {
		// zap.NewDevelopmentConfig().Build() only fails on a bad sink URL,
		// which this fixed config never supplies.
		panic(err)
	}
	return &zapLogger{l: l}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Noop discards every log line, used where no logger was configured.
func Noop() Logger { return &zapLogger{l: zap.NewNop()} }

// Field re-exports zap.Field constructors so callers never import zap
// directly.
var (
	String = zap.String
	Int    = zap.Int
	Uint32 = zap.Uint32
	Uint64 = zap.Uint64
	Error  = zap.Error
)
