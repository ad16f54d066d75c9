package logpipe

import (
	"context"
)

// Logger is the per-category facade handed out by Service.Logger. It is safe
// for concurrent use and cheap to copy around.
type Logger struct {
	category string
	svc      *Service
	fields   map[string]any
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{}
}

// Category returns the category name this logger reports under.
func (l *Logger) Category() string {
	if l == nil {
		return emptyString
	}
	return l.category
}

// IsEnabled reports whether an entry at level would be written. It is false
// when no sinks are configured or the service has been closed.
func (l *Logger) IsEnabled(level Level) bool {
	if l == nil || l.svc == nil {
		return false
	}
	return l.svc.enabled(l.category, level)
}

// Log writes msg at level. A non-nil err is attached as the exception chain.
func (l *Logger) Log(ctx context.Context, level Level, msg string, err error) {
	if !l.IsEnabled(level) {
		return
	}
	e := l.newEntry(ctx, level, msg)
	if err != nil {
		e.Exception = ExceptionFromError(err)
	}
	l.svc.dispatch(ctx, e)
}

// TraceWith starts a structured entry at LevelTrace.
func (l *Logger) TraceWith(ctx context.Context) LogEvent {
	return newLogEvent(ctx, l, LevelTrace)
}

// DebugWith starts a structured entry at LevelDebug.
func (l *Logger) DebugWith(ctx context.Context) LogEvent {
	return newLogEvent(ctx, l, LevelDebug)
}

// InfoWith starts a structured entry at LevelInfo.
func (l *Logger) InfoWith(ctx context.Context) LogEvent {
	return newLogEvent(ctx, l, LevelInfo)
}

// WarnWith starts a structured entry at LevelWarn.
func (l *Logger) WarnWith(ctx context.Context) LogEvent {
	return newLogEvent(ctx, l, LevelWarn)
}

// ErrorWith starts a structured entry at LevelError.
func (l *Logger) ErrorWith(ctx context.Context) LogEvent {
	return newLogEvent(ctx, l, LevelError)
}

// CriticalWith starts a structured entry at LevelCritical.
func (l *Logger) CriticalWith(ctx context.Context) LogEvent {
	return newLogEvent(ctx, l, LevelCritical)
}

// With starts a derived logger carrying extra fields.
//
//	reqLog := log.With().Str("route", "/users").Logger()
func (l *Logger) With() LogContext {
	c := &logContext{parent: l, fields: make(map[string]any)}
	if l != nil {
		for k, v := range l.fields {
			c.fields[k] = v
		}
	}
	return c
}
