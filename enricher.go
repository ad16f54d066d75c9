package logpipe

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Station-Manager/logpipe/logctx"
)

// Enricher adds properties to an entry before it is formatted. Enrichers run
// in registration order and may only add keys that are still absent, so the
// first writer of a key wins.
type Enricher interface {
	Enrich(ctx context.Context, e *Entry)
}

// EnricherFunc adapts a function to Enricher.
type EnricherFunc func(ctx context.Context, e *Entry)

// Enrich calls f(ctx, e).
func (f EnricherFunc) Enrich(ctx context.Context, e *Entry) {
	f(ctx, e)
}

// ScopeEnricher copies the scope properties open in ctx onto the entry.
type ScopeEnricher struct{}

// Enrich implements Enricher.
func (ScopeEnricher) Enrich(ctx context.Context, e *Entry) {
	for k, v := range logctx.Properties(ctx) {
		e.AddPropertyIfAbsent(k, v)
	}
}

// StaticEnricher adds a fixed set of properties, such as the application
// name or deployment environment, to every entry.
type StaticEnricher struct {
	props map[string]any
}

// NewStaticEnricher copies props.
func NewStaticEnricher(props map[string]any) *StaticEnricher {
	cp := make(map[string]any, len(props))
	for k, v := range props {
		cp[k] = v
	}
	return &StaticEnricher{props: cp}
}

// Enrich implements Enricher.
func (s *StaticEnricher) Enrich(_ context.Context, e *Entry) {
	for k, v := range s.props {
		e.AddPropertyIfAbsent(k, v)
	}
}

// Host property names.
const (
	PropMachineName = "MachineName"
	PropProcessID   = "ProcessId"
	PropProcessName = "ProcessName"
)

// HostEnricher adds the machine name, process id and process name. The
// values are captured once at construction.
type HostEnricher struct {
	machine string
	pid     int
	process string
}

// NewHostEnricher captures the host identity of the running process.
func NewHostEnricher() *HostEnricher {
	h := &HostEnricher{pid: os.Getpid()}
	if name, err := os.Hostname(); err == nil {
		h.machine = name
	}
	if exe, err := os.Executable(); err == nil {
		h.process = strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
	}
	return h
}

// Enrich implements Enricher.
func (h *HostEnricher) Enrich(_ context.Context, e *Entry) {
	if h.machine != emptyString {
		e.AddPropertyIfAbsent(PropMachineName, h.machine)
	}
	e.AddPropertyIfAbsent(PropProcessID, h.pid)
	if h.process != emptyString {
		e.AddPropertyIfAbsent(PropProcessName, h.process)
	}
}

// ErrorChainEnricher summarises the attached exception chain as flat
// properties: error_chain, error_root, error_history and, when any link
// carries an operation, error_ops and error_root_op.
type ErrorChainEnricher struct{}

// Enrich implements Enricher.
func (ErrorChainEnricher) Enrich(_ context.Context, e *Entry) {
	if e.Exception == nil {
		return
	}
	chain, ops := errorChain(e.Exception)
	e.AddPropertyIfAbsent("error_chain", chain)
	e.AddPropertyIfAbsent("error_root", chain[len(chain)-1])
	e.AddPropertyIfAbsent("error_history", joinChain(chain))

	hasOp := false
	for _, op := range ops {
		if op != emptyString {
			hasOp = true
			break
		}
	}
	if hasOp {
		e.AddPropertyIfAbsent("error_ops", ops)
		if rootOp := ops[len(ops)-1]; rootOp != emptyString {
			e.AddPropertyIfAbsent("error_root_op", rootOp)
		}
	}
}
