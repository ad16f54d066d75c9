package logpipe

import (
	"bytes"

	"github.com/rs/zerolog"
)

// JSONTimeFormat is the ISO-8601 timestamp layout of JSONFormatter.
const JSONTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JSONFormatter renders an entry as one JSON object with the fixed keys
// timestamp, level, eventId, message, correlationId, exception and
// properties. Encoding goes through zerolog's JSON encoder, which escapes
// quotes, control characters and invalid UTF-8.
type JSONFormatter struct{}

// Format implements Formatter.
func (JSONFormatter) Format(e *Entry) (string, error) {
	if e == nil {
		return emptyString, ErrNilEntry
	}

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ev := logger.Log().
		Str("timestamp", e.Timestamp.UTC().Format(JSONTimeFormat)).
		Str("level", e.Level.String()).
		Int("eventId", e.EventID).
		Str("message", e.Message)

	if e.CorrelationID == emptyString {
		ev = ev.Interface("correlationId", nil)
	} else {
		ev = ev.Str("correlationId", e.CorrelationID)
	}

	if e.Exception == nil {
		ev = ev.Interface("exception", nil)
	} else {
		ev = ev.Dict("exception", exceptionDict(e.Exception))
	}

	props := e.properties
	if props == nil {
		props = map[string]any{}
	}
	ev.Interface("properties", props).Send()

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// exceptionDict builds the nested exception objects from the innermost link
// outwards.
func exceptionDict(x *Exception) *zerolog.Event {
	links := make([]*Exception, 0, x.Depth())
	for ; x != nil; x = x.Inner {
		links = append(links, x)
	}

	var inner *zerolog.Event
	for i := len(links) - 1; i >= 0; i-- {
		link := links[i]
		d := zerolog.Dict().
			Str("type", link.Type).
			Str("message", link.Message)
		if link.StackTrace == emptyString {
			d = d.Interface("stackTrace", nil)
		} else {
			d = d.Str("stackTrace", link.StackTrace)
		}
		if inner == nil {
			d = d.Interface("innerException", nil)
		} else {
			d = d.Dict("innerException", inner)
		}
		inner = d
	}
	return inner
}
