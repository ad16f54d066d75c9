package logpipe

import (
	"context"
	"fmt"
	"os"
	"testing"

	smerrors "github.com/Station-Manager/errors"
	"github.com/Station-Manager/logpipe/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestScopeEnricher(t *testing.T) {
	ctx, outer := logctx.NewScope(context.Background())
	defer outer.Close()
	require.NoError(t, logctx.AddProperty(ctx, "UserId", 42))

	inner, h := logctx.NewScope(ctx)
	defer h.Close()
	require.NoError(t, logctx.AddProperty(inner, "Action", "Login"))

	e := NewEntry("c", LevelInfo, "m")
	e.AddPropertyIfAbsent("Action", "call-site")
	ScopeEnricher{}.Enrich(inner, e)

	assert.Equal(t, map[string]any{"UserId": 42, "Action": "call-site"}, e.Properties())
}

func TestStaticEnricher(t *testing.T) {
	src := map[string]any{"env": "prod"}
	en := NewStaticEnricher(src)
	src["env"] = "dev"

	e := NewEntry("c", LevelInfo, "m")
	en.Enrich(context.Background(), e)
	v, ok := e.Property("env")
	require.True(t, ok)
	assert.Equal(t, "prod", v)
}

func TestHostEnricher(t *testing.T) {
	e := NewEntry("c", LevelInfo, "m")
	NewHostEnricher().Enrich(context.Background(), e)

	pid, ok := e.Property(PropProcessID)
	require.True(t, ok)
	assert.Equal(t, os.Getpid(), pid)

	if host, err := os.Hostname(); err == nil {
		v, _ := e.Property(PropMachineName)
		assert.Equal(t, host, v)
	}
}

func TestErrorChainEnricher(t *testing.T) {
	t.Run("no exception", func(t *testing.T) {
		e := NewEntry("c", LevelInfo, "m")
		ErrorChainEnricher{}.Enrich(context.Background(), e)
		assert.Empty(t, e.Properties())
	})

	t.Run("std chain", func(t *testing.T) {
		root := fmt.Errorf("connection refused")
		err := fmt.Errorf("open: %w", root)

		e := NewEntry("c", LevelError, "m")
		e.Exception = ExceptionFromError(err)
		ErrorChainEnricher{}.Enrich(context.Background(), e)

		chain, _ := e.Property("error_chain")
		assert.Equal(t, []string{"open: connection refused", "connection refused"}, chain)
		rootMsg, _ := e.Property("error_root")
		assert.Equal(t, "connection refused", rootMsg)
		history, _ := e.Property("error_history")
		assert.Equal(t, "open: connection refused -> connection refused", history)
		_, hasOps := e.Property("error_ops")
		assert.False(t, hasOps)
	})

	t.Run("detailed chain has ops", func(t *testing.T) {
		inner := smerrors.New("db.Connect").Msg("dial failed")
		outer := smerrors.New("server.Start").Err(inner).Msg("startup failed")

		e := NewEntry("c", LevelError, "m")
		e.Exception = ExceptionFromError(outer)
		ErrorChainEnricher{}.Enrich(context.Background(), e)

		ops, ok := e.Property("error_ops")
		require.True(t, ok)
		assert.Equal(t, []string{"server.Start", "db.Connect"}, ops)
		rootOp, _ := e.Property("error_root_op")
		assert.Equal(t, "db.Connect", rootOp)
	})
}

func TestTraceEnricher(t *testing.T) {
	t.Run("no span", func(t *testing.T) {
		e := NewEntry("c", LevelInfo, "m")
		TraceEnricher{}.Enrich(context.Background(), e)
		assert.Empty(t, e.Properties())
	})

	t.Run("active span", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		defer func() { _ = tp.Shutdown(context.Background()) }()

		ctx, span := tp.Tracer("logpipe-test").Start(context.Background(), "op")
		defer span.End()

		e := NewEntry("c", LevelInfo, "m")
		TraceEnricher{}.Enrich(ctx, e)

		sc := span.SpanContext()
		traceID, _ := e.Property(PropTraceID)
		spanID, _ := e.Property(PropSpanID)
		sampled, _ := e.Property(PropTraceSampled)
		assert.Equal(t, sc.TraceID().String(), traceID)
		assert.Equal(t, sc.SpanID().String(), spanID)
		assert.Equal(t, true, sampled)
	})
}

func TestEntry_FirstWriterWinsAndFreeze(t *testing.T) {
	e := NewEntry("c", LevelInfo, "m")
	assert.True(t, e.AddPropertyIfAbsent("k", 1))
	assert.False(t, e.AddPropertyIfAbsent("k", 2))
	assert.False(t, e.AddPropertyIfAbsent("", 3))

	e.Freeze()
	assert.True(t, e.Frozen())
	assert.False(t, e.AddPropertyIfAbsent("late", 4))

	v, _ := e.Property("k")
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"k"}, e.PropertyKeys())
}
