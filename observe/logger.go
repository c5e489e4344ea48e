package observe

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log field.
type Field struct {
	Key   string
	Value any
}

// String builds a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int builds an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Duration builds a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err builds an error field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Logger is a minimal structured logging interface.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging is best-effort and must not panic.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a logger that attaches fields to every entry.
	With(fields ...Field) Logger
}

// LoggerConfig configures the zap-backed logger.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string

	// Output receives the JSON log lines.
	// Default: os.Stderr
	Output io.Writer
}

// zapLogger adapts *zap.Logger to the Logger interface.
type zapLogger struct {
	logger *zap.Logger
}

// NewLogger creates a JSON structured logger.
func NewLogger(cfg LoggerConfig) Logger {
	var writer zapcore.WriteSyncer = zapcore.AddSync(os.Stderr)
	if cfg.Output != nil {
		writer = zapcore.AddSync(cfg.Output)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writer, parseLevel(cfg.Level))
	return &zapLogger{logger: zap.New(core)}
}

// NopLogger returns a logger that discards everything. The default for
// library use.
func NopLogger() Logger {
	return &zapLogger{logger: zap.NewNop()}
}

func (l *zapLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, convertFields(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, convertFields(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, convertFields(fields)...)
}

func (l *zapLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, convertFields(fields)...)
}

func (l *zapLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &zapLogger{logger: l.logger.With(convertFields(fields)...)}
}

func convertFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok && f.Key == "error" {
			out = append(out, zap.Error(err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func parseLevel(s string) zapcore.Level {
	switch s {
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

// Ensure zapLogger implements Logger
var _ Logger = (*zapLogger)(nil)
