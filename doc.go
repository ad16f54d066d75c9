// Package logpipe is a structured logging pipeline: a level filter decides
// whether an entry is built, enrichers attach ambient properties, and every
// configured sink renders the entry with its own formatter.
//
// Key features
//   - Per-category levels: exact category, longest namespace prefix, default
//   - Correlation ids and nested property scopes carried on context.Context
//     (see package logctx), so concurrent work never shares them by accident
//   - Line and JSON formatters with full exception chains
//   - Console, size/time rotating file, and lumberjack rolling file sinks
//   - Per-sink fault isolation: one failing sink never affects the others
//   - Graceful shutdown that waits for in-flight logs (bounded timeout)
//   - Error history enrichment: Err attaches the whole cause chain, including
//     the operations of Station-Manager DetailedError links
//
// Typical usage
//
//	filter := logpipe.NewLevelFilter(logpipe.FilterRules{Default: logpipe.LevelInfo})
//	console, _ := logpipe.NewConsoleSink(os.Stdout, logpipe.LineFormatter{})
//	svc, err := logpipe.NewService(filter, []logpipe.Sink{console}, logpipe.ScopeEnricher{})
//	if err != nil { panic(err) }
//	defer svc.Close()
//
//	log, _ := svc.Logger("App.Services.User")
//	ctx, h := logctx.SetCorrelationID(ctx, "req-1")
//	defer h.Close()
//	log.InfoWith(ctx).Str("user_id", id).Msg("processed")
//	log.ErrorWith(ctx).Err(err).Msg("failed")
//
// Pipelines can also be described in YAML or JSON and built with package
// config.
package logpipe
