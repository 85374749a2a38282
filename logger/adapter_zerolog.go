package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologAdapter is a Logger on top of github.com/rs/zerolog.
type ZerologAdapter struct {
	zl zerolog.Logger
}

// NewZerologAdapter builds a ZerologAdapter writing timestamped JSON records.
func NewZerologAdapter(appName, env string, opts ...Option) *ZerologAdapter {
	cfg := buildConfig(opts)
	zl := zerolog.New(cfg.GetWriter()).
		Level(toZerologLevel(cfg.Level)).
		With().Timestamp().Str("service", appName).Str("env", env).
		Logger()
	return &ZerologAdapter{zl: zl}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return &ZerologAdapter{zl: zerolog.Nop()}
}

func (a *ZerologAdapter) Debug(msg string, args ...any) { a.zl.Debug().Fields(args).Msg(msg) }
func (a *ZerologAdapter) Info(msg string, args ...any)  { a.zl.Info().Fields(args).Msg(msg) }
func (a *ZerologAdapter) Warn(msg string, args ...any)  { a.zl.Warn().Fields(args).Msg(msg) }
func (a *ZerologAdapter) Error(msg string, args ...any) { a.zl.Error().Fields(args).Msg(msg) }

// Ctx adds the load_id carried by ctx.
func (a *ZerologAdapter) Ctx(ctx context.Context) Logger {
	if id := LoadIDFromContext(ctx); id != "" {
		return &ZerologAdapter{zl: a.zl.With().Str(loadIDKey, id).Logger()}
	}
	return a
}

func (a *ZerologAdapter) With(args ...any) Logger {
	return &ZerologAdapter{zl: a.zl.With().Fields(args).Logger()}
}

// WithGroup adds an empty dictionary field called name. Zerolog cannot nest
// later fields under it.
func (a *ZerologAdapter) WithGroup(name string) Logger {
	return &ZerologAdapter{zl: a.zl.With().Dict(name, zerolog.Dict()).Logger()}
}

func (a *ZerologAdapter) Log(level Level, msg string, attrs ...Attr) {
	ev := a.zl.WithLevel(toZerologLevel(level))
	if ev == nil {
		return
	}
	for _, attr := range attrs {
		if err, ok := attr.Value.(error); ok {
			ev = ev.AnErr(attr.Key, err)
		} else {
			ev = ev.Interface(attr.Key, attr.Value)
		}
	}
	ev.Msg(msg)
}

func (a *ZerologAdapter) LogAttrs(ctx context.Context, level Level, msg string, attrs ...Attr) {
	a.Ctx(ctx).Log(level, msg, attrs...)
}

func toZerologLevel(l Level) zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}
