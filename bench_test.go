package logpipe

import (
	"context"
	"io"
	"strconv"
	"testing"

	smerrors "github.com/Station-Manager/errors"
	"github.com/Station-Manager/logpipe/logctx"
)

// newBenchLogger builds a pipeline that formats to io.Discard, to measure
// pure pipeline overhead.
func newBenchLogger(b *testing.B, level Level, formatter Formatter) *Logger {
	b.Helper()
	sink, err := NewConsoleSink(io.Discard, formatter)
	if err != nil {
		b.Fatal(err)
	}
	svc, err := NewService(NewLevelFilter(FilterRules{Default: level}), []Sink{sink}, ScopeEnricher{})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = svc.Close() })
	log, err := svc.Logger("Bench")
	if err != nil {
		b.Fatal(err)
	}
	return log
}

func makeDetailedChain(depth int) error {
	if depth <= 0 {
		return nil
	}
	err := smerrors.New(smerrors.Op("op_0")).Msg("root cause message")
	for i := 1; i < depth; i++ {
		op := "op_" + strconv.Itoa(i)
		err = smerrors.New(smerrors.Op(op)).Err(err).Msg("wrapped message")
	}
	return err
}

func BenchmarkInfoWith_Disabled(b *testing.B) {
	log := newBenchLogger(b, LevelError, LineFormatter{})
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.InfoWith(ctx).Str("k", "v").Int("n", i).Msg("hello")
	}
}

func BenchmarkInfoWith_Line(b *testing.B) {
	log := newBenchLogger(b, LevelInfo, LineFormatter{})
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.InfoWith(ctx).Str("k", "v").Int("n", i).Msg("hello")
	}
}

func BenchmarkInfoWith_JSON(b *testing.B) {
	log := newBenchLogger(b, LevelInfo, JSONFormatter{})
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.InfoWith(ctx).Str("k", "v").Int("n", i).Msg("hello")
	}
}

func BenchmarkErrorWith_DetailedChain6(b *testing.B) {
	log := newBenchLogger(b, LevelError, JSONFormatter{})
	err := makeDetailedChain(6)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		log.ErrorWith(ctx).Err(err).Msg("oops")
	}
}

func BenchmarkParallel_InfoWith_Scoped(b *testing.B) {
	log := newBenchLogger(b, LevelInfo, LineFormatter{})
	ctx, corr := logctx.SetCorrelationID(context.Background(), "bench")
	defer corr.Close()
	ctx, scope := logctx.NewScope(ctx)
	defer scope.Close()
	_ = logctx.AddProperty(ctx, "UserId", 42)

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			log.InfoWith(ctx).Str("k", "v").Msg("hi")
		}
	})
}
