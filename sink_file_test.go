package logpipe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out a settable time.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func newTestFileSink(t *testing.T, opts FileSinkOptions, clock *fakeClock) *FileSink {
	t.Helper()
	if opts.Directory == "" {
		opts.Directory = t.TempDir()
	}
	if opts.Prefix == "" {
		opts.Prefix = "app"
	}
	s, err := NewFileSink(opts)
	require.NoError(t, err)
	if clock != nil {
		s.now = clock.Now
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func logFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".log") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestNewFileSink(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		_, err := NewFileSink(FileSinkOptions{Directory: "  "})
		require.Error(t, err)
		assert.Contains(t, err.Error(), errMsgEmptyDirectory)
	})

	t.Run("invalid prefix", func(t *testing.T) {
		_, err := NewFileSink(FileSinkOptions{Directory: t.TempDir(), Prefix: "a/b"})
		require.Error(t, err)
	})

	t.Run("negative size", func(t *testing.T) {
		_, err := NewFileSink(FileSinkOptions{Directory: t.TempDir(), MaxFileSizeBytes: -1})
		require.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "logs")
		s, err := NewFileSink(FileSinkOptions{Directory: dir})
		require.NoError(t, err)
		defer s.Close()

		assert.DirExists(t, dir)
		assert.Equal(t, "file", s.Name())
		assert.Equal(t, DefaultMaxFileSizeBytes, s.maxSize)
		assert.Equal(t, DefaultMaxBackupFiles, s.keep)
		assert.NotEmpty(t, s.prefix)
		assert.IsType(t, LineFormatter{}, s.Formatter())
		assert.Empty(t, s.CurrentFile())
		assert.Empty(t, logFiles(t, dir), "no file before the first write")
	})

	t.Run("negative backups keep one", func(t *testing.T) {
		s := newTestFileSink(t, FileSinkOptions{MaxBackupFiles: -5}, nil)
		assert.Equal(t, 1, s.keep)
	})
}

func TestFileSink_WriteAndNaming(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 2, 23, 14, 30, 45, 0, time.UTC)}
	s := newTestFileSink(t, FileSinkOptions{}, clock)

	require.NoError(t, s.Write("first"))
	require.NoError(t, s.Write("second"))

	assert.Equal(t, []string{"app-20240223-143045.log"}, logFiles(t, s.Directory()))
	assert.Equal(t, filepath.Join(s.Directory(), "app-20240223-143045.log"), s.CurrentFile())
	assert.Equal(t, "first\nsecond\n", readFile(t, s.CurrentFile()))
}

func TestFileSink_SizeRotation(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	t.Run("oversized record gets its own file", func(t *testing.T) {
		s := newTestFileSink(t, FileSinkOptions{MaxFileSizeBytes: 200}, clock)

		big := strings.Repeat("x", 500)
		require.NoError(t, s.Write("small"))
		require.NoError(t, s.Write(big))
		require.NoError(t, s.Write("after"))

		files := logFiles(t, s.Directory())
		require.Len(t, files, 3)
		assert.Equal(t, "small\n", readFile(t, filepath.Join(s.Directory(), "app-20240101-000000.log")))
		assert.Equal(t, big+"\n", readFile(t, filepath.Join(s.Directory(), "app-20240101-000000-1.log")))
		assert.Equal(t, "after\n", readFile(t, filepath.Join(s.Directory(), "app-20240101-000000-2.log")))
	})

	t.Run("records accumulate up to the limit", func(t *testing.T) {
		s := newTestFileSink(t, FileSinkOptions{MaxFileSizeBytes: 20}, clock)

		require.NoError(t, s.Write("123456789")) // 10 bytes
		require.NoError(t, s.Write("123456789")) // 20 bytes, still fits
		require.NoError(t, s.Write("x"))         // would exceed
		assert.Len(t, logFiles(t, s.Directory()), 2)
	})
}

func TestFileSink_Pruning(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	s := newTestFileSink(t, FileSinkOptions{
		MaxFileSizeBytes: 200,
		MaxBackupFiles:   3,
		Metrics:          m,
	}, clock)

	// an unrelated file must survive pruning
	other := filepath.Join(s.Directory(), "other-20200101-000000.log")
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o600))

	record := strings.Repeat("r", 300)
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Write(fmt.Sprintf("%d%s", i, record)))
	}

	assert.Equal(t, []string{
		"app-20240101-000000-7.log",
		"app-20240101-000000-8.log",
		"app-20240101-000000-9.log",
		"other-20200101-000000.log",
	}, logFiles(t, s.Directory()))
	assert.True(t, strings.HasPrefix(readFile(t, s.CurrentFile()), "9"))

	assert.Equal(t, float64(10), testutil.ToFloat64(m.rotations.WithLabelValues("file")))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.pruned.WithLabelValues("file")))
}

func TestFileSink_PruneOrdersByStamp(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"app-20230101-000000.log",
		"app-20231231-235959.log",
		"app-20230601-120000-3.log",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestFileSink(t, FileSinkOptions{Directory: dir, MaxBackupFiles: 2}, clock)
	require.NoError(t, s.Write("hello"))

	assert.Equal(t, []string{
		"app-20231231-235959.log",
		"app-20240101-000000.log",
	}, logFiles(t, dir))
}

func TestFileSink_TimeRotation(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC)}
	s := newTestFileSink(t, FileSinkOptions{RollingInterval: RollingDay}, clock)

	require.NoError(t, s.Write("day one"))
	clock.Set(time.Date(2024, 1, 1, 23, 59, 59, 500_000_000, time.UTC))
	require.NoError(t, s.Write("still day one"))

	clock.Set(time.Date(2024, 1, 2, 0, 0, 1, 0, time.UTC))
	require.NoError(t, s.Write("day two"))

	assert.Equal(t, []string{
		"app-20240101-235959.log",
		"app-20240102-000001.log",
	}, logFiles(t, s.Directory()))
	assert.Equal(t, "day two\n", readFile(t, s.CurrentFile()))

	t.Run("clock going backwards does not rotate", func(t *testing.T) {
		clock.Set(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
		require.NoError(t, s.Write("late"))
		assert.Len(t, logFiles(t, s.Directory()), 2)
	})
}

func TestPeriodStart(t *testing.T) {
	ts := time.Date(2024, 3, 15, 13, 45, 10, 0, time.FixedZone("X", -5*3600))
	assert.Equal(t, time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC), periodStart(ts, RollingHour))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), periodStart(ts, RollingDay))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), periodStart(ts, RollingMonth))
	assert.True(t, periodStart(ts, RollingNone).IsZero())
}

func TestParseRollingInterval(t *testing.T) {
	for in, want := range map[string]RollingInterval{
		"": RollingNone, "none": RollingNone, "Day": RollingDay,
		"hourly": RollingHour, "month": RollingMonth,
	} {
		got, err := ParseRollingInterval(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		if in != "" && in != "hourly" && in != "Day" {
			assert.Equal(t, in, got.String())
		}
	}
	_, err := ParseRollingInterval("weekly")
	assert.Error(t, err)
}

func TestFileSink_Close(t *testing.T) {
	s := newTestFileSink(t, FileSinkOptions{}, nil)
	require.NoError(t, s.Write("one"))
	path := s.CurrentFile()

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")
	assert.Empty(t, s.CurrentFile())
	assert.ErrorIs(t, s.Write("two"), ErrSinkClosed)
	assert.Equal(t, "one\n", readFile(t, path))
}

func TestFileSink_CloseWithoutWrites(t *testing.T) {
	s := newTestFileSink(t, FileSinkOptions{}, nil)
	require.NoError(t, s.Close())
	assert.Empty(t, logFiles(t, s.Directory()))
}

func TestFileSink_OpenFailureRetries(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestFileSink(t, FileSinkOptions{}, clock)

	require.NoError(t, os.RemoveAll(s.Directory()))
	require.Error(t, s.Write("lost"))
	assert.Empty(t, s.CurrentFile())

	require.NoError(t, os.MkdirAll(s.Directory(), 0o750))
	require.NoError(t, s.Write("kept"))
	assert.Equal(t, "kept\n", readFile(t, s.CurrentFile()))
}

func TestFileSink_ConcurrentWrites(t *testing.T) {
	s := newTestFileSink(t, FileSinkOptions{MaxFileSizeBytes: 4096}, nil)

	const writers, perWriter = 10, 100
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.NoError(t, s.Write(fmt.Sprintf("writer-%02d record-%03d", w, i)))
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, s.Close())

	seen := map[string]bool{}
	for _, name := range logFiles(t, s.Directory()) {
		content := readFile(t, filepath.Join(s.Directory(), name))
		info, err := os.Stat(filepath.Join(s.Directory(), name))
		require.NoError(t, err)
		assert.LessOrEqual(t, info.Size(), int64(4096))
		for _, line := range lines(content) {
			assert.Regexp(t, `^writer-\d{2} record-\d{3}$`, line)
			seen[line] = true
		}
	}
	assert.Len(t, seen, writers*perWriter)
}
