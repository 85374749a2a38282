package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogrusAdapter is a Logger on top of github.com/sirupsen/logrus.
// Logrus has no field groups, so WithGroup returns the receiver.
type LogrusAdapter struct {
	entry *logrus.Entry
}

// NewLogrusAdapter builds a LogrusAdapter with the JSON formatter.
func NewLogrusAdapter(appName, env string, opts ...Option) *LogrusAdapter {
	cfg := buildConfig(opts)

	l := logrus.New()
	l.SetOutput(cfg.GetWriter())
	l.SetLevel(toLogrusLevel(cfg.Level))
	l.SetFormatter(&logrus.JSONFormatter{})

	return &LogrusAdapter{entry: l.WithFields(logrus.Fields{"service": appName, "env": env})}
}

func (a *LogrusAdapter) Debug(msg string, args ...any) { a.withArgs(args).Debug(msg) }
func (a *LogrusAdapter) Info(msg string, args ...any)  { a.withArgs(args).Info(msg) }
func (a *LogrusAdapter) Warn(msg string, args ...any)  { a.withArgs(args).Warn(msg) }
func (a *LogrusAdapter) Error(msg string, args ...any) { a.withArgs(args).Error(msg) }

// withArgs turns key-value pairs into fields. Pairs with a non-string key
// and a trailing key without a value are dropped.
func (a *LogrusAdapter) withArgs(args []any) *logrus.Entry {
	if len(args) == 0 {
		return a.entry
	}
	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	return a.entry.WithFields(fields)
}

// Ctx adds the load_id carried by ctx.
func (a *LogrusAdapter) Ctx(ctx context.Context) Logger {
	if id := LoadIDFromContext(ctx); id != "" {
		return &LogrusAdapter{entry: a.entry.WithField(loadIDKey, id)}
	}
	return a
}

func (a *LogrusAdapter) With(args ...any) Logger {
	return &LogrusAdapter{entry: a.withArgs(args)}
}

func (a *LogrusAdapter) WithGroup(_ string) Logger {
	return a
}

func (a *LogrusAdapter) Log(level Level, msg string, attrs ...Attr) {
	fields := make(logrus.Fields, len(attrs))
	for _, attr := range attrs {
		if err, ok := attr.Value.(error); ok {
			fields[attr.Key] = err.Error()
		} else {
			fields[attr.Key] = attr.Value
		}
	}
	a.entry.WithFields(fields).Log(toLogrusLevel(level), msg)
}

func (a *LogrusAdapter) LogAttrs(ctx context.Context, level Level, msg string, attrs ...Attr) {
	a.Ctx(ctx).Log(level, msg, attrs...)
}

func toLogrusLevel(l Level) logrus.Level {
	switch l {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	}
	return logrus.InfoLevel
}
