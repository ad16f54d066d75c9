package logpipe

import (
	"fmt"
	"strings"
)

// Formatter renders an entry as one output record. Implementations are pure:
// no I/O, no shared mutable state, and an error only for a nil entry.
type Formatter interface {
	Format(e *Entry) (string, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(e *Entry) (string, error)

// Format calls f(e).
func (f FormatterFunc) Format(e *Entry) (string, error) {
	if e == nil {
		return emptyString, ErrNilEntry
	}
	return f(e)
}

// NewFormatter returns the built-in formatter called name ("line" or "json").
// An empty name selects the line formatter.
func NewFormatter(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "line", "text":
		return LineFormatter{}, nil
	case "json":
		return JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("logpipe: unknown formatter %q", name)
	}
}
