package logctx

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Fork returns a context for a new concurrent flow. The child gets its own
// copy of the correlation id and of the merged scope properties as they are
// right now: later handle closes in the parent do not change what the child
// sees, and properties the child adds never reach the parent.
func Fork(ctx context.Context) context.Context {
	ctx = orBackground(ctx)

	if correlationFrame(ctx) != nil {
		v, ok := correlationFrame(ctx).resolve()
		ctx = context.WithValue(ctx, keyCorrelation, &corrFrame{value: v, present: ok})
	}

	if f := scopeFrameOf(ctx); f != nil {
		var child *scopeFrame
		if f.innermost() != nil {
			child = &scopeFrame{props: Properties(ctx)}
		}
		ctx = context.WithValue(ctx, keyScope, child)
	}
	return ctx
}

// Go runs fn on a new goroutine with a forked context.
func Go(ctx context.Context, fn func(context.Context)) {
	child := Fork(ctx)
	go fn(child)
}

// Group is an errgroup.Group whose goroutines each run on a forked context.
type Group struct {
	g   *errgroup.Group
	ctx context.Context
}

// NewGroup returns a Group bound to ctx and the derived context that is
// cancelled when a member fails or Wait returns.
func NewGroup(ctx context.Context) (*Group, context.Context) {
	g, gctx := errgroup.WithContext(orBackground(ctx))
	return &Group{g: g, ctx: gctx}, gctx
}

// Go forks the group context at call time and runs fn with it.
func (g *Group) Go(fn func(ctx context.Context) error) {
	child := Fork(g.ctx)
	g.g.Go(func() error {
		return fn(child)
	})
}

// GoWith is Go for a context derived from the group context after NewGroup,
// for example one carrying a correlation id set by the caller.
func (g *Group) GoWith(ctx context.Context, fn func(ctx context.Context) error) {
	child := Fork(ctx)
	g.g.Go(func() error {
		return fn(child)
	})
}

// SetLimit bounds the number of active goroutines; see errgroup.Group.SetLimit.
func (g *Group) SetLimit(n int) {
	g.g.SetLimit(n)
}

// Wait blocks until every goroutine returns and yields the first error.
func (g *Group) Wait() error {
	return g.g.Wait()
}
