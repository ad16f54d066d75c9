package logctx

import (
	"context"
	"sync"
)

// scopeFrame is one open scope level. Each frame owns its map; nested frames
// only read their ancestors.
type scopeFrame struct {
	mu     sync.RWMutex
	props  map[string]any
	parent *scopeFrame
	handle *Handle // nil for frames created by Fork
}

func (f *scopeFrame) open() bool {
	return !f.handle.Released()
}

// innermost returns the nearest frame that has not been closed.
func (f *scopeFrame) innermost() *scopeFrame {
	for ; f != nil; f = f.parent {
		if f.open() {
			return f
		}
	}
	return nil
}

// NewScope derives a context with a new, empty scope nested inside whatever
// scopes ctx already has open. Closing the handle pops exactly this level.
func NewScope(ctx context.Context) (context.Context, *Handle) {
	ctx = orBackground(ctx)
	h := &Handle{}
	f := &scopeFrame{
		props:  make(map[string]any),
		parent: scopeFrameOf(ctx),
		handle: h,
	}
	return context.WithValue(ctx, keyScope, f), h
}

// AddProperty sets key on the innermost open scope visible from ctx. It is a
// no-op when no scope is open. Ancestor scopes are never written.
func AddProperty(ctx context.Context, key string, value any) error {
	if ctx == nil {
		return ErrNilContext
	}
	if key == "" {
		return ErrEmptyKey
	}
	f := scopeFrameOf(ctx).innermost()
	if f == nil {
		return nil
	}
	f.mu.Lock()
	f.props[key] = value
	f.mu.Unlock()
	return nil
}

// Properties merges every open scope visible from ctx. Inner scopes win on
// key collisions. The result is a fresh map the caller may keep; it is empty
// (never nil) when no scope is open.
func Properties(ctx context.Context) map[string]any {
	out := make(map[string]any)
	if ctx == nil {
		return out
	}

	var open []*scopeFrame
	for f := scopeFrameOf(ctx); f != nil; f = f.parent {
		if f.open() {
			open = append(open, f)
		}
	}
	for i := len(open) - 1; i >= 0; i-- {
		f := open[i]
		f.mu.RLock()
		for k, v := range f.props {
			out[k] = v
		}
		f.mu.RUnlock()
	}
	return out
}

// HasScope reports whether any scope is open in ctx.
func HasScope(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	return scopeFrameOf(ctx).innermost() != nil
}

func scopeFrameOf(ctx context.Context) *scopeFrame {
	f, _ := ctx.Value(keyScope).(*scopeFrame)
	return f
}
