package logger

import (
	"context"
	"log/slog"
)

// SlogAdapter is a Logger on top of log/slog with a JSON handler.
type SlogAdapter struct {
	sl *slog.Logger
}

// NewSlogAdapter builds a SlogAdapter.
func NewSlogAdapter(appName, env string, opts ...Option) *SlogAdapter {
	cfg := buildConfig(opts)
	h := slog.NewJSONHandler(cfg.GetWriter(), &slog.HandlerOptions{Level: toSlogLevel(cfg.Level)})
	return &SlogAdapter{sl: slog.New(h).With("service", appName, "env", env)}
}

func (a *SlogAdapter) Debug(msg string, args ...any) { a.sl.Debug(msg, args...) }
func (a *SlogAdapter) Info(msg string, args ...any)  { a.sl.Info(msg, args...) }
func (a *SlogAdapter) Warn(msg string, args ...any)  { a.sl.Warn(msg, args...) }
func (a *SlogAdapter) Error(msg string, args ...any) { a.sl.Error(msg, args...) }

// Ctx adds the load_id carried by ctx.
func (a *SlogAdapter) Ctx(ctx context.Context) Logger {
	return a.forContext(ctx)
}

func (a *SlogAdapter) forContext(ctx context.Context) *SlogAdapter {
	if id := LoadIDFromContext(ctx); id != "" {
		return &SlogAdapter{sl: a.sl.With(loadIDKey, id)}
	}
	return a
}

func (a *SlogAdapter) With(args ...any) Logger {
	return &SlogAdapter{sl: a.sl.With(args...)}
}

func (a *SlogAdapter) WithGroup(name string) Logger {
	return &SlogAdapter{sl: a.sl.WithGroup(name)}
}

func (a *SlogAdapter) Log(level Level, msg string, attrs ...Attr) {
	a.write(context.Background(), level, msg, attrs)
}

func (a *SlogAdapter) LogAttrs(ctx context.Context, level Level, msg string, attrs ...Attr) {
	a.forContext(ctx).write(ctx, level, msg, attrs)
}

func (a *SlogAdapter) write(ctx context.Context, level Level, msg string, attrs []Attr) {
	lvl := toSlogLevel(level)
	if !a.sl.Enabled(ctx, lvl) {
		return
	}
	out := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		out[i] = slog.Any(attr.Key, attr.Value)
	}
	a.sl.LogAttrs(ctx, lvl, msg, out...)
}

func toSlogLevel(l Level) slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	}
	return slog.LevelInfo
}
