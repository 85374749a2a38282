// Package logger provides a structured logging interface backed by one of
// several engines (zap, slog, zerolog, logrus). Loggers are plain values passed
// to the code that needs them; nothing in this package is global.
package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Level represents the severity of a log record.
type Level int

// Levels in increasing order of severity.
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Engine names a logging implementation a Logger can be backed by.
type Engine string

// Supported engines.
const (
	ZapEngine     Engine = "zap"
	SlogEngine    Engine = "slog"
	ZerologEngine Engine = "zerolog"
	LogrusEngine  Engine = "logrus"
)

// Attr represents a key-value pair for structured logging.
type Attr struct {
	Key   string
	Value any
}

// Logger defines a unified interface for structured logging across multiple engines.
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, args ...any)
	// Info logs a message at InfoLevel.
	Info(msg string, args ...any)
	// Warn logs a message at WarnLevel.
	Warn(msg string, args ...any)
	// Error logs a message at ErrorLevel.
	Error(msg string, args ...any)

	// Ctx returns a logger enriched with values carried by ctx (load_id).
	Ctx(ctx context.Context) Logger
	// With returns a logger that adds the given key-value pairs to every record.
	With(args ...any) Logger
	// WithGroup creates a logger with a named group prefix for all keys (where supported by the engine).
	WithGroup(name string) Logger

	// Log logs a message at the specified level with structured attributes.
	Log(level Level, msg string, attrs ...Attr)
	// LogAttrs logs a message at the specified level with structured attributes and context enrichment.
	LogAttrs(ctx context.Context, level Level, msg string, attrs ...Attr)
}

// ErrUnknownLevel is returned by ParseLevel for an unrecognised level name.
var ErrUnknownLevel = errors.New("unknown log level")

// ErrUnknownEngine is returned by ParseEngine for an unrecognised engine name.
var ErrUnknownEngine = errors.New("unknown log engine")

// InitLogger builds a Logger on engine. Every record carries appName as
// "service" and env as "env". An unknown engine falls back to slog.
func InitLogger(engine Engine, appName, env string, opts ...Option) (Logger, error) {
	switch engine {
	case ZapEngine:
		return NewZapAdapter(appName, env, opts...)
	case SlogEngine:
		return NewSlogAdapter(appName, env, opts...), nil
	case ZerologEngine:
		return NewZerologAdapter(appName, env, opts...), nil
	case LogrusEngine:
		return NewLogrusAdapter(appName, env, opts...), nil
	default:
		return NewSlogAdapter(appName, env, opts...), nil
	}
}

// ParseLevel maps a level name (debug, info, warn/warning, error; any case)
// to a Level. "critical" is accepted as an alias of error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error", "critical":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}

// ParseEngine maps an engine name to an Engine. An empty name selects slog.
func ParseEngine(s string) (Engine, error) {
	switch e := Engine(strings.ToLower(strings.TrimSpace(s))); e {
	case ZapEngine, SlogEngine, ZerologEngine, LogrusEngine:
		return e, nil
	case "":
		return SlogEngine, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
}

// String creates a string attribute.
func String(key string, value string) Attr {
	return Attr{Key: key, Value: value}
}

// Int creates an int attribute.
func Int(key string, value int) Attr {
	return Attr{Key: key, Value: value}
}

// Duration creates an attribute holding d in its text form ("1.5s").
func Duration(key string, d time.Duration) Attr {
	return Attr{Key: key, Value: d.String()}
}

// Err creates the "error" attribute. A nil err is logged as null.
func Err(err error) Attr {
	if err == nil {
		return Attr{Key: "error", Value: nil}
	}
	return Attr{Key: "error", Value: err.Error()}
}

// Any creates an attribute with an arbitrary value.
func Any(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}
