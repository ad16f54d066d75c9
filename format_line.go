package logpipe

import (
	"fmt"
	"strings"
)

// LineTimeFormat is the fixed timestamp layout of LineFormatter (UTC).
const LineTimeFormat = "2006-01-02 15:04:05.000"

// LineFormatter renders one human-readable line per entry:
//
//	2024-02-23 14:30:45.123 [ERROR] {CorrelationId: req-1} message [Properties: k=v]
//
// followed, when an exception is attached, by a newline and the exception
// chain with each inner exception indented one level deeper.
type LineFormatter struct{}

// Format implements Formatter.
func (LineFormatter) Format(e *Entry) (string, error) {
	if e == nil {
		return emptyString, ErrNilEntry
	}

	var b strings.Builder
	b.Grow(64 + len(e.Message))

	b.WriteString(e.Timestamp.UTC().Format(LineTimeFormat))
	b.WriteString(" [")
	b.WriteString(strings.ToUpper(e.Level.String()))
	b.WriteString("] ")

	if e.CorrelationID != emptyString {
		b.WriteString("{CorrelationId: ")
		b.WriteString(e.CorrelationID)
		b.WriteString("} ")
	}

	b.WriteString(e.Message)

	if len(e.properties) > 0 {
		b.WriteString(" [Properties: ")
		for i, k := range e.PropertyKeys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteByte('=')
			fmt.Fprint(&b, e.properties[k])
		}
		b.WriteByte(']')
	}

	if e.Exception != nil {
		b.WriteByte('\n')
		writeException(&b, e.Exception)
	}

	return b.String(), nil
}

// writeException renders the chain iteratively so deep chains cannot
// exhaust the stack.
func writeException(b *strings.Builder, x *Exception) {
	for depth := 0; x != nil; depth, x = depth+1, x.Inner {
		indent := strings.Repeat("  ", depth)
		if depth > 0 {
			b.WriteByte('\n')
			b.WriteString(indent)
			b.WriteString("---> ")
		}
		b.WriteString(x.Type)
		b.WriteString(": ")
		b.WriteString(x.Message)

		if x.StackTrace == emptyString {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(x.StackTrace, "\n"), "\n") {
			b.WriteByte('\n')
			b.WriteString(indent)
			b.WriteString("   ")
			b.WriteString(strings.TrimSpace(line))
		}
	}
}
