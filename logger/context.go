package logger

import (
	"context"

	"github.com/google/uuid"
)

// loadIDKey is the log field that correlates all records of one load.
const loadIDKey = "load_id"

// contextKey is a private type used to avoid key collisions in context.WithValue.
type contextKey struct{}

var loadIDCtxKey = contextKey{}

// WithLoadID stores the given load ID in the context. Loggers add it to every
// record logged through Ctx or LogAttrs.
func WithLoadID(ctx context.Context, loadID string) context.Context {
	return context.WithValue(ctx, loadIDCtxKey, loadID)
}

// LoadIDFromContext retrieves the load ID from the context.
// Returns an empty string if none is present.
func LoadIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if loadID, ok := ctx.Value(loadIDCtxKey).(string); ok {
		return loadID
	}
	return ""
}

// NewLoadID creates a new random identifier (UUID v4) for a load.
func NewLoadID() string {
	return uuid.New().String()
}
