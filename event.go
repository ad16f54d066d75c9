package logpipe

import (
	"context"
	"fmt"
	"time"
)

// LogContext builds a derived Logger whose fields are attached to every
// entry it logs.
type LogContext interface {
	Str(key, val string) LogContext
	Strs(key string, vals []string) LogContext
	Int(key string, val int) LogContext
	Int64(key string, val int64) LogContext
	Uint64(key string, val uint64) LogContext
	Float64(key string, val float64) LogContext
	Bool(key string, val bool) LogContext
	Time(key string, val time.Time) LogContext
	Interface(key string, val any) LogContext
	// Logger returns the derived logger.
	Logger() *Logger
}

// LogEvent is a single structured log call under construction. Fields set on
// the event win over logger fields and enricher output for the same key.
// An event for a disabled level is a no-op and evaluates nothing.
type LogEvent interface {
	Str(key, val string) LogEvent
	Strs(key string, vals []string) LogEvent
	Stringer(key string, val fmt.Stringer) LogEvent
	Int(key string, val int) LogEvent
	Int64(key string, val int64) LogEvent
	Uint64(key string, val uint64) LogEvent
	Float64(key string, val float64) LogEvent
	Bool(key string, val bool) LogEvent
	Time(key string, val time.Time) LogEvent
	Dur(key string, val time.Duration) LogEvent
	Err(err error) LogEvent
	AnErr(key string, err error) LogEvent
	Interface(key string, val any) LogEvent
	EventID(id int) LogEvent
	Msg(msg string)
	Msgf(format string, v ...any)
	Send()
}

// logEvent accumulates an entry. A nil entry marks a disabled or already
// sent event.
type logEvent struct {
	ctx    context.Context
	logger *Logger
	entry  *Entry
}

func newLogEvent(ctx context.Context, l *Logger, level Level) LogEvent {
	if !l.IsEnabled(level) {
		return &logEvent{}
	}
	return &logEvent{
		ctx:    ctx,
		logger: l,
		entry:  l.newEntry(ctx, level, emptyString),
	}
}

func (e *logEvent) Str(key, val string) LogEvent {
	if e.entry != nil {
		e.entry.AddPropertyIfAbsent(key, val)
	}
	return e
}

func (e *logEvent) Strs(key string, vals []string) LogEvent {
	if e.entry != nil {
		e.entry.AddPropertyIfAbsent(key, append([]string(nil), vals...))
	}
	return e
}

func (e *logEvent) Stringer(key string, val fmt.Stringer) LogEvent {
	if e.entry != nil {
		if val == nil {
			e.entry.AddPropertyIfAbsent(key, nil)
		} else {
			e.entry.AddPropertyIfAbsent(key, val.String())
		}
	}
	return e
}

func (e *logEvent) Int(key string, val int) LogEvent {
	if e.entry != nil {
		e.entry.AddPropertyIfAbsent(key, val)
	}
	return e
}

func (e *logEvent) Int64(key string, val int64) LogEvent {
	if e.entry != nil {
		e.entry.AddPropertyIfAbsent(key, val)
	}
	return e
}

func (e *logEvent) Uint64(key string, val uint64) LogEvent {
	if e.entry != nil {
		e.entry.AddPropertyIfAbsent(key, val)
	}
	return e
}

func (e *logEvent) Float64(key string, val float64) LogEvent {
	if e.entry != nil {
		e.entry.AddPropertyIfAbsent(key, val)
	}
	return e
}

func (e *logEvent) Bool(key string, val bool) LogEvent {
	if e.entry != nil {
		e.entry.AddPropertyIfAbsent(key, val)
	}
	return e
}

func (e *logEvent) Time(key string, val time.Time) LogEvent {
	if e.entry != nil {
		e.entry.AddPropertyIfAbsent(key, val)
	}
	return e
}

func (e *logEvent) Dur(key string, val time.Duration) LogEvent {
	if e.entry != nil {
		e.entry.AddPropertyIfAbsent(key, val.String())
	}
	return e
}

// Err attaches err as the entry's exception chain. A nil err is ignored.
func (e *logEvent) Err(err error) LogEvent {
	if e.entry != nil && err != nil {
		e.entry.Exception = ExceptionFromError(err)
	}
	return e
}

// AnErr records err as a property: key holds its message and key_root the
// message of its innermost cause.
func (e *logEvent) AnErr(key string, err error) LogEvent {
	if e.entry == nil || err == nil {
		return e
	}
	chain, _ := errorChain(ExceptionFromError(err))
	e.entry.AddPropertyIfAbsent(key, chain[0])
	if len(chain) > 1 {
		e.entry.AddPropertyIfAbsent(key+"_root", chain[len(chain)-1])
	}
	return e
}

func (e *logEvent) Interface(key string, val any) LogEvent {
	if e.entry != nil {
		e.entry.AddPropertyIfAbsent(key, val)
	}
	return e
}

func (e *logEvent) EventID(id int) LogEvent {
	if e.entry != nil {
		e.entry.EventID = id
	}
	return e
}

func (e *logEvent) Msg(msg string) {
	if e.entry == nil {
		return
	}
	e.entry.Message = msg
	e.send()
}

func (e *logEvent) Msgf(format string, v ...any) {
	if e.entry == nil {
		return
	}
	e.entry.Message = fmt.Sprintf(format, v...)
	e.send()
}

func (e *logEvent) Send() {
	if e.entry == nil {
		return
	}
	e.send()
}

func (e *logEvent) send() {
	entry := e.entry
	e.entry = nil
	e.logger.svc.dispatch(e.ctx, entry)
}

// logContext collects fields for Logger.With.
type logContext struct {
	parent *Logger
	fields map[string]any
}

func (c *logContext) set(key string, val any) LogContext {
	if key != emptyString {
		c.fields[key] = val
	}
	return c
}

func (c *logContext) Str(key, val string) LogContext { return c.set(key, val) }

func (c *logContext) Strs(key string, vals []string) LogContext {
	return c.set(key, append([]string(nil), vals...))
}

func (c *logContext) Int(key string, val int) LogContext         { return c.set(key, val) }
func (c *logContext) Int64(key string, val int64) LogContext     { return c.set(key, val) }
func (c *logContext) Uint64(key string, val uint64) LogContext   { return c.set(key, val) }
func (c *logContext) Float64(key string, val float64) LogContext { return c.set(key, val) }
func (c *logContext) Bool(key string, val bool) LogContext       { return c.set(key, val) }
func (c *logContext) Time(key string, val time.Time) LogContext  { return c.set(key, val) }
func (c *logContext) Interface(key string, val any) LogContext   { return c.set(key, val) }

func (c *logContext) Logger() *Logger {
	if c.parent == nil {
		return Nop()
	}
	return &Logger{
		category: c.parent.category,
		svc:      c.parent.svc,
		fields:   c.fields,
	}
}
