// Package logging provides the platform-wide structured logging interface
// and its zap-backed implementation.  Components depend on the Logger
// interface defined here; go.uber.org/zap is not imported outside this
// package so the backing library can be swapped without touching business
// logic.
package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a typed key-value pair attached to a log entry.  A concrete
// struct rather than variadic interface{} pairs keeps call sites explicit
// and lets the zap adapter avoid reflection for the common types.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, val string) Field                 { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field            { return Field{Key: key, Value: val} }
func Float64(key string, val float64) Field        { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field              { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }

// Any is the escape hatch for values without a typed constructor.
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }

// Err captures an error under the canonical key "error".  Nil errors render
// as "<nil>" so the key is always present when the call site expects it.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger is the structured logging contract.  Every component receives one
// via constructor injection; tests inject NewNopLogger().
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Fatal logs and exits the process.  Startup failures only, never in a
	// request path.
	Fatal(msg string, fields ...Field)

	// With returns a child logger carrying the fields on every entry.
	With(fields ...Field) Logger

	// Named appends name to the logger's dot-separated name chain.
	Named(name string) Logger
}

// LogConfig carries logger construction parameters, populated from the
// application configuration.
type LogConfig struct {
	// Level is the minimum severity emitted: debug, info, warn or error.
	// Empty or unrecognised values fall back to info.
	Level string `mapstructure:"level" json:"level"`

	// Format selects "json" (default) or "console" encoding.
	Format string `mapstructure:"format" json:"format"`

	// OutputPaths lists sinks for entries; "stdout" and "stderr" are
	// special values.  Defaults to stdout.
	OutputPaths []string `mapstructure:"output_paths" json:"output_paths"`

	// ErrorOutputPaths lists sinks for internal logging errors.  Defaults
	// to stderr.
	ErrorOutputPaths []string `mapstructure:"error_output_paths" json:"error_output_paths"`
}

type zapAdapter struct {
	z *zap.Logger
}

func convert(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out[i] = zap.String(f.Key, v)
		case int:
			out[i] = zap.Int(f.Key, v)
		case int64:
			out[i] = zap.Int64(f.Key, v)
		case float64:
			out[i] = zap.Float64(f.Key, v)
		case bool:
			out[i] = zap.Bool(f.Key, v)
		case time.Duration:
			out[i] = zap.Duration(f.Key, v)
		case error:
			out[i] = zap.NamedError(f.Key, v)
		default:
			out[i] = zap.Any(f.Key, v)
		}
	}
	return out
}

func (l *zapAdapter) Debug(msg string, fields ...Field) { l.z.Debug(msg, convert(fields)...) }
func (l *zapAdapter) Info(msg string, fields ...Field)  { l.z.Info(msg, convert(fields)...) }
func (l *zapAdapter) Warn(msg string, fields ...Field)  { l.z.Warn(msg, convert(fields)...) }
func (l *zapAdapter) Error(msg string, fields ...Field) { l.z.Error(msg, convert(fields)...) }
func (l *zapAdapter) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, convert(fields)...) }

func (l *zapAdapter) With(fields ...Field) Logger {
	return &zapAdapter{z: l.z.With(convert(fields)...)}
}

func (l *zapAdapter) Named(name string) Logger {
	return &zapAdapter{z: l.z.Named(name)}
}

// NewLogger builds a zap-backed Logger from cfg, defaulting any unset field.
// Errors surface only from zap itself, typically an output path that cannot
// be opened.
func NewLogger(cfg LogConfig) (Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	errOutputs := cfg.ErrorOutputPaths
	if len(errOutputs) == 0 {
		errOutputs = []string{"stderr"}
	}

	console := cfg.Format == "console"
	encCfg := zap.NewProductionEncoderConfig()
	if console {
		encCfg = zap.NewDevelopmentEncoderConfig()
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	encoding := "json"
	if console {
		encoding = "console"
	}
	z, err := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      console,
		Encoding:         encoding,
		EncoderConfig:    encCfg,
		OutputPaths:      outputs,
		ErrorOutputPaths: errOutputs,
	}.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logging: building zap logger: %w", err)
	}
	return &zapAdapter{z: z}, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Fatal(string, ...Field) {}

func (n nopLogger) With(...Field) Logger { return n }
func (n nopLogger) Named(string) Logger  { return n }

// NewNopLogger returns a Logger that discards everything.  For tests.
func NewNopLogger() Logger { return nopLogger{} }
