package logpipe

import "context"

// CategoryLogger is the contract host adapters program against. For new
// code, prefer the structured methods (InfoWith, ErrorWith, etc.) over Log.
type CategoryLogger interface {
	Category() string
	IsEnabled(level Level) bool
	Log(ctx context.Context, level Level, msg string, err error)

	TraceWith(ctx context.Context) LogEvent
	DebugWith(ctx context.Context) LogEvent
	InfoWith(ctx context.Context) LogEvent
	WarnWith(ctx context.Context) LogEvent
	ErrorWith(ctx context.Context) LogEvent
	CriticalWith(ctx context.Context) LogEvent

	// With creates a derived logger with pre-populated fields.
	// Example: reqLog := log.With().Str("request_id", id).Logger()
	With() LogContext

	Dump(ctx context.Context, v any)
}

var _ CategoryLogger = (*Logger)(nil)
