package logpipe

import (
	"sort"
	"time"
)

// Entry is one log record. It is built once per enabled log call, enriched,
// frozen and then handed to every sink. Nothing retains an Entry after the
// call returns.
type Entry struct {
	Timestamp     time.Time
	Level         Level
	Category      string
	EventID       int
	Message       string
	Exception     *Exception
	CorrelationID string // empty means absent

	properties   map[string]any
	loggerFields map[string]any
	frozen       bool
}

// NewEntry returns an entry stamped with the current UTC time.
func NewEntry(category string, level Level, message string) *Entry {
	return &Entry{
		Timestamp:  time.Now().UTC(),
		Level:      level,
		Category:   category,
		Message:    message,
		properties: make(map[string]any),
	}
}

// AddPropertyIfAbsent sets key to value unless the key is already present or
// the entry is frozen. It reports whether the value was stored.
func (e *Entry) AddPropertyIfAbsent(key string, value any) bool {
	if e.frozen || key == "" {
		return false
	}
	if e.properties == nil {
		e.properties = make(map[string]any)
	}
	if _, ok := e.properties[key]; ok {
		return false
	}
	e.properties[key] = value
	return true
}

// Property returns the value stored under key.
func (e *Entry) Property(key string) (any, bool) {
	v, ok := e.properties[key]
	return v, ok
}

// Properties returns the property map. Callers must not modify it.
func (e *Entry) Properties() map[string]any {
	return e.properties
}

// PropertyKeys returns the property keys in sorted order.
func (e *Entry) PropertyKeys() []string {
	keys := make([]string, 0, len(e.properties))
	for k := range e.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Freeze ends the enrichment phase; later AddPropertyIfAbsent calls fail.
func (e *Entry) Freeze() {
	e.frozen = true
}

// Frozen reports whether Freeze has been called.
func (e *Entry) Frozen() bool {
	return e.frozen
}
