package logctx

import (
	"context"
	"errors"

	"go.uber.org/atomic"
)

type contextKey string

const (
	keyCorrelation = contextKey("logctx:correlation")
	keyScope       = contextKey("logctx:scope")
)

var (
	// ErrNilContext is returned when a nil context is passed where one is required.
	ErrNilContext = errors.New("logctx: nil context")

	// ErrEmptyKey is returned by AddProperty for an empty property key.
	ErrEmptyKey = errors.New("logctx: empty property key")
)

// Handle releases a value established by SetCorrelationID or NewScope.
// Close runs the release exactly once; later calls are no-ops.
type Handle struct {
	released atomic.Bool
}

// Close releases the handle. It always returns nil and exists so a Handle
// satisfies io.Closer and reads naturally in a defer.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	h.released.Store(true)
	return nil
}

// Released reports whether Close has been called.
func (h *Handle) Released() bool {
	return h != nil && h.released.Load()
}

// orBackground substitutes context.Background for a nil ctx.
func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
