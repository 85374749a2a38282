package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter is a Logger on top of go.uber.org/zap. Records are JSON with
// the caller attached; error records also carry a stack trace.
type ZapAdapter struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

// NewZapAdapter builds a ZapAdapter. The error is always nil and kept for
// symmetry with InitLogger.
func NewZapAdapter(appName, env string, opts ...Option) (*ZapAdapter, error) {
	cfg := buildConfig(opts)

	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(cfg.GetWriter()), toZapLevel(cfg.Level))

	z := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)).
		With(zap.String("service", appName), zap.String("env", env))
	return wrapZap(z), nil
}

func wrapZap(z *zap.Logger) *ZapAdapter {
	return &ZapAdapter{base: z, sugar: z.Sugar()}
}

func (a *ZapAdapter) Debug(msg string, args ...any) { a.sugar.Debugw(msg, args...) }
func (a *ZapAdapter) Info(msg string, args ...any)  { a.sugar.Infow(msg, args...) }
func (a *ZapAdapter) Warn(msg string, args ...any)  { a.sugar.Warnw(msg, args...) }
func (a *ZapAdapter) Error(msg string, args ...any) { a.sugar.Errorw(msg, args...) }

// Ctx adds the load_id carried by ctx.
func (a *ZapAdapter) Ctx(ctx context.Context) Logger {
	if id := LoadIDFromContext(ctx); id != "" {
		return wrapZap(a.base.With(zap.String(loadIDKey, id)))
	}
	return a
}

// With adds key-value pairs. A non-string key is logged as "UNKNOWN".
func (a *ZapAdapter) With(args ...any) Logger {
	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = "UNKNOWN"
		}
		var val any = "<missing>"
		if i+1 < len(args) {
			val = args[i+1]
		}
		fields = append(fields, zap.Any(key, val))
	}
	return wrapZap(a.base.With(fields...))
}

// WithGroup nests subsequent fields under name.
func (a *ZapAdapter) WithGroup(name string) Logger {
	return wrapZap(a.base.With(zap.Namespace(name)))
}

func (a *ZapAdapter) Log(level Level, msg string, attrs ...Attr) {
	ce := a.base.Check(toZapLevel(level), msg)
	if ce == nil {
		return
	}
	fields := make([]zap.Field, len(attrs))
	for i, attr := range attrs {
		fields[i] = zap.Any(attr.Key, attr.Value)
	}
	ce.Write(fields...)
}

func (a *ZapAdapter) LogAttrs(ctx context.Context, level Level, msg string, attrs ...Attr) {
	a.Ctx(ctx).Log(level, msg, attrs...)
}

func toZapLevel(l Level) zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}
