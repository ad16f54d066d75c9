package logctx

import (
	"context"

	"github.com/google/uuid"
)

// corrFrame is one SetCorrelationID call. Frames are immutable apart from
// the owning handle; a released frame is skipped during resolution so the
// derived context falls back to the value that was current before the set.
type corrFrame struct {
	value   string
	present bool
	prev    *corrFrame
	handle  *Handle // nil for frames created by Fork, which never release
}

func (f *corrFrame) resolve() (string, bool) {
	for ; f != nil; f = f.prev {
		if f.handle.Released() {
			continue
		}
		return f.value, f.present
	}
	return "", false
}

// SetCorrelationID derives a context whose correlation id is id. Closing the
// returned handle makes the derived context resolve to the value that was
// current immediately before this call, including absence.
//
// A nil ctx is treated as context.Background.
func SetCorrelationID(ctx context.Context, id string) (context.Context, *Handle) {
	ctx = orBackground(ctx)
	h := &Handle{}
	f := &corrFrame{
		value:   id,
		present: true,
		prev:    correlationFrame(ctx),
		handle:  h,
	}
	return context.WithValue(ctx, keyCorrelation, f), h
}

// CorrelationID returns the correlation id visible from ctx.
func CorrelationID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	return correlationFrame(ctx).resolve()
}

// EnsureCorrelationID returns ctx unchanged when it already carries a
// correlation id; otherwise it sets a freshly generated one. The handle is
// nil when nothing was set.
func EnsureCorrelationID(ctx context.Context) (context.Context, *Handle) {
	if _, ok := CorrelationID(ctx); ok {
		return ctx, nil
	}
	return SetCorrelationID(ctx, NewCorrelationID())
}

// NewCorrelationID generates a random (v4) UUID string.
func NewCorrelationID() string {
	return uuid.NewString()
}

func correlationFrame(ctx context.Context) *corrFrame {
	f, _ := ctx.Value(keyCorrelation).(*corrFrame)
	return f
}
