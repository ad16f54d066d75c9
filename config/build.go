package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Station-Manager/logpipe"
	"github.com/prometheus/client_golang/prometheus"
)

// Build turns the configuration into an initialized Service. Metrics are
// registered on reg when it is non-nil. Sinks already opened are closed if a
// later step fails.
func (c *Config) Build(reg prometheus.Registerer) (*logpipe.Service, error) {
	rules, err := c.Level.Rules()
	if err != nil {
		return nil, err
	}

	var metrics *logpipe.Metrics
	if reg != nil {
		if metrics, err = logpipe.NewMetrics(reg); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	if c.Diagnostics {
		logpipe.SetDiagnostics(os.Stderr, logpipe.LevelDebug)
	}

	sinks, err := c.sinks(metrics)
	if err != nil {
		return nil, err
	}

	svc := &logpipe.Service{
		Filter:          logpipe.NewLevelFilter(rules),
		Sinks:           sinks,
		Enrichers:       c.Enrichers.build(),
		Metrics:         metrics,
		ShutdownTimeout: time.Duration(c.ShutdownTimeoutMS) * time.Millisecond,
	}
	if err := svc.Initialize(); err != nil {
		closeSinks(sinks)
		return nil, err
	}
	return svc, nil
}

// Rules converts the level section into filter rules.
func (l LevelConfig) Rules() (logpipe.FilterRules, error) {
	def, err := logpipe.ParseLevel(l.Default)
	if err != nil {
		return logpipe.FilterRules{}, err
	}
	rules := logpipe.FilterRules{
		Default:    def,
		Categories: make(map[string]logpipe.Level, len(l.Categories)),
		Namespaces: make(map[string]logpipe.Level, len(l.Namespaces)),
	}
	for _, c := range l.Categories {
		lvl, err := logpipe.ParseLevel(c.Level)
		if err != nil {
			return logpipe.FilterRules{}, fmt.Errorf("category %s: %w", c.Name, err)
		}
		rules.Categories[c.Name] = lvl
	}
	for _, n := range l.Namespaces {
		lvl, err := logpipe.ParseLevel(n.Level)
		if err != nil {
			return logpipe.FilterRules{}, fmt.Errorf("namespace %s: %w", n.Prefix, err)
		}
		rules.Namespaces[n.Prefix] = lvl
	}
	return rules, nil
}

func (c *Config) sinks(metrics *logpipe.Metrics) ([]logpipe.Sink, error) {
	var sinks []logpipe.Sink
	fail := func(err error) ([]logpipe.Sink, error) {
		closeSinks(sinks)
		return nil, err
	}

	if c.Console.Enabled {
		formatter, err := logpipe.NewFormatter(c.Console.Format)
		if err != nil {
			return fail(err)
		}
		var out io.Writer = os.Stdout
		if c.Console.Stream == "stderr" {
			out = os.Stderr
		}
		sink, err := logpipe.NewConsoleSink(out, formatter)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, sink)
	}

	if c.File.Enabled {
		formatter, err := logpipe.NewFormatter(c.File.Format)
		if err != nil {
			return fail(err)
		}
		interval, err := logpipe.ParseRollingInterval(c.File.RollingInterval)
		if err != nil {
			return fail(err)
		}
		sink, err := logpipe.NewFileSink(logpipe.FileSinkOptions{
			Directory:        c.File.Directory,
			Prefix:           c.File.Prefix,
			MaxFileSizeBytes: c.File.MaxFileSizeBytes,
			RollingInterval:  interval,
			MaxBackupFiles:   c.File.MaxBackupFiles,
			Formatter:        formatter,
			Metrics:          metrics,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, sink)
	}

	if c.Rolling.Enabled {
		formatter, err := logpipe.NewFormatter(c.Rolling.Format)
		if err != nil {
			return fail(err)
		}
		sink, err := logpipe.NewRollingFileSink(logpipe.RollingFileSinkOptions{
			Filename:   c.Rolling.Filename,
			MaxSizeMB:  c.Rolling.MaxSizeMB,
			MaxBackups: c.Rolling.MaxBackups,
			MaxAgeDays: c.Rolling.MaxAgeDays,
			Compress:   c.Rolling.Compress,
			LocalTime:  c.Rolling.LocalTime,
			Formatter:  formatter,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, sink)
	}

	return sinks, nil
}

func (e EnrichersConfig) build() []logpipe.Enricher {
	var enrichers []logpipe.Enricher
	if e.Scope {
		enrichers = append(enrichers, logpipe.ScopeEnricher{})
	}
	if e.Host {
		enrichers = append(enrichers, logpipe.NewHostEnricher())
	}
	if e.Trace {
		enrichers = append(enrichers, logpipe.TraceEnricher{})
	}
	if e.ErrorChain {
		enrichers = append(enrichers, logpipe.ErrorChainEnricher{})
	}
	if len(e.Static) > 0 {
		enrichers = append(enrichers, logpipe.NewStaticEnricher(e.Static))
	}
	return enrichers
}

func closeSinks(sinks []logpipe.Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}
