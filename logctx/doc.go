// Package logctx carries the ambient logging state of a logical flow: the
// correlation id and the stack of scope properties.
//
// State lives on context.Context values, so it forks by value whenever a
// context is handed to a new goroutine: siblings never observe each other's
// values. Setting a value returns a derived context plus a Handle; closing
// the handle restores what the derived context resolved to before the set.
//
// Use Fork, Go or Group when spawning work that must keep the parent's view
// even after the parent closes its handles.
//
//	ctx, h := logctx.SetCorrelationID(ctx, "req-1")
//	defer h.Close()
//
//	ctx, scope := logctx.NewScope(ctx)
//	defer scope.Close()
//	_ = logctx.AddProperty(ctx, "user_id", id)
package logctx
