package logpipe

import (
	"context"

	"github.com/Station-Manager/logpipe/logctx"
)

// newEntry stamps an entry for l with the correlation id active in ctx. The
// logger's own fields ride along and are applied by attachLoggerFields once
// the call site has added its fields, so the call site wins.
func (l *Logger) newEntry(ctx context.Context, level Level, msg string) *Entry {
	e := NewEntry(l.category, level, msg)
	if ctx != nil {
		if id, ok := logctx.CorrelationID(ctx); ok {
			e.CorrelationID = id
		}
	}
	if len(l.fields) > 0 {
		e.loggerFields = l.fields
	}
	return e
}

// attachLoggerFields copies the fields of the logger that built e.
func attachLoggerFields(e *Entry) {
	for k, v := range e.loggerFields {
		e.AddPropertyIfAbsent(k, v)
	}
	e.loggerFields = nil
}
