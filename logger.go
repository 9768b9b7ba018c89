package persons

import "context"

// Logger is the logging contract used across the service.
// Components accept a nil Logger and skip logging in that case.
// keyvals are alternating key/value pairs.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}
