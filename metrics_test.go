package logpipe

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("nil metrics record nothing", func(t *testing.T) {
		var m *Metrics
		m.entryWritten("s", LevelInfo)
		m.sinkFailed("s")
		m.fileRotated("s")
		m.filesPruned("s", 3)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		_, err := NewMetrics(reg)
		require.NoError(t, err)
		_, err = NewMetrics(reg)
		assert.Error(t, err)
	})

	t.Run("counters", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m, err := NewMetrics(reg)
		require.NoError(t, err)

		m.entryWritten("console", LevelWarn)
		m.entryWritten("console", LevelWarn)
		m.filesPruned("file", 0)
		m.filesPruned("file", 2)

		assert.Equal(t, float64(2), testutil.ToFloat64(m.entries.WithLabelValues("console", "warn")))
		assert.Equal(t, float64(2), testutil.ToFloat64(m.pruned.WithLabelValues("file")))

		n, err := testutil.GatherAndCount(reg, "logpipe_entries_written_total")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
