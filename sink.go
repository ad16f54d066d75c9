package logpipe

// Sink is an output destination. The orchestrator formats each entry with
// the sink's own Formatter and hands the result to Write. Implementations
// must be safe for concurrent use, and Close must be idempotent.
type Sink interface {
	// Name identifies the sink in diagnostics and metrics.
	Name() string
	Formatter() Formatter
	Write(formatted string) error
	Close() error
}
