package logpipe

import (
	"io"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// diagnostics receives the pipeline's own failures: sink write errors,
// recovered panics and skipped prune deletions. It never feeds back into
// the pipeline, so a broken sink cannot recurse into itself.
var diagnostics atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	diagnostics.Store(&nop)
}

// SetDiagnostics routes internal pipeline diagnostics to w as zerolog JSON
// lines at level and above. A nil w silences diagnostics again.
func SetDiagnostics(w io.Writer, level Level) {
	if w == nil {
		nop := zerolog.Nop()
		diagnostics.Store(&nop)
		return
	}
	logger := zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Str("component", "logpipe").Logger()
	diagnostics.Store(&logger)
}

// SetDiagnosticLogger installs a caller-built zerolog logger.
func SetDiagnosticLogger(logger zerolog.Logger) {
	diagnostics.Store(&logger)
}

func diag() *zerolog.Logger {
	return diagnostics.Load()
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelTrace:
		return zerolog.TraceLevel
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelCritical:
		return zerolog.FatalLevel
	default:
		return zerolog.Disabled
	}
}
