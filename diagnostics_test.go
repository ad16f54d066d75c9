package logpipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics_ReportsSinkFailures(t *testing.T) {
	var buf bytes.Buffer
	SetDiagnostics(&buf, LevelDebug)
	t.Cleanup(func() { SetDiagnosticLogger(zerolog.Nop()) })

	failing := newMemSink("failing")
	failing.writeErr = errors.New("disk full")
	svc := newTestService(t, FilterRules{Default: LevelInfo}, []Sink{failing})
	mustLogger(t, svc, "App").Log(context.Background(), LevelInfo, "lost", nil)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "failing", line["sink"])
	assert.Equal(t, "disk full", line["error"])
	assert.Equal(t, "writing entry", line["message"])
}

func TestDiagnostics_DefaultIsSilent(t *testing.T) {
	SetDiagnosticLogger(zerolog.Nop())
	assert.Equal(t, zerolog.Disabled, diag().GetLevel())
}
