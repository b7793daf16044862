package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a single structured attribute attached to a log line.
type Field = zap.Field

func String(key, val string) Field  { return zap.String(key, val) }
func Uint64(key string, val uint64) Field { return zap.Uint64(key, val) }
func Int(key string, val int) Field { return zap.Int(key, val) }
func Err(err error) Field           { return zap.Error(err) }

// Logger wraps *zap.Logger with the handful of methods this repo's
// components call. Grounded on
// MuhammadChandra19-exchange/pkg/logger/log.go's zap-wrapping Logger,
// trimmed to what the matching core actually needs (leveled logging plus
// With-style field attachment) — the context-aware DebugContext/
// InfoContext/etc. variants that draft exposes have no caller here and
// are not carried over.
type Logger struct {
	z *zap.Logger
}

// Level is this repo's configuration-facing log level name.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a production-style logger at the given level, renaming the
// default "msg" key to "message" the same way
// MuhammadChandra19-exchange's logger does.
func New(level Level) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	cfg.EncoderConfig.MessageKey = "message"

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

func (l *Logger) Sync() error { return l.z.Sync() }
