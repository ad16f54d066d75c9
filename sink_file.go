package logpipe

import (
	stderrs "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Station-Manager/errors"
)

// RollingInterval is the UTC calendar boundary at which a FileSink starts a
// new file regardless of size.
type RollingInterval int

const (
	RollingNone RollingInterval = iota
	RollingDay
	RollingHour
	RollingMonth
)

// String returns the lower-case interval name.
func (r RollingInterval) String() string {
	switch r {
	case RollingNone:
		return "none"
	case RollingDay:
		return "day"
	case RollingHour:
		return "hour"
	case RollingMonth:
		return "month"
	default:
		return "interval(" + strconv.Itoa(int(r)) + ")"
	}
}

// ParseRollingInterval parses none/day/hour/month, case-insensitive.
func ParseRollingInterval(s string) (RollingInterval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RollingNone, nil
	case "day", "daily":
		return RollingDay, nil
	case "hour", "hourly":
		return RollingHour, nil
	case "month", "monthly":
		return RollingMonth, nil
	default:
		return RollingNone, fmt.Errorf("logpipe: unknown rolling interval %q", s)
	}
}

// periodStart truncates t to the start of its interval in UTC. The zero time
// is returned for RollingNone so no boundary ever advances.
func periodStart(t time.Time, interval RollingInterval) time.Time {
	t = t.UTC()
	switch interval {
	case RollingDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case RollingHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case RollingMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

const (
	fileStampLayout = "20060102-150405"
	fileExtension   = ".log"
	// maxNameAttempts bounds the sequence suffix search within one second.
	maxNameAttempts = 10000
)

// FileSinkOptions configures a FileSink.
type FileSinkOptions struct {
	// Name labels the sink in metrics and diagnostics; defaults to "file".
	Name string
	// Directory receives the log files; created if absent.
	Directory string `validate:"required"`
	// Prefix starts every file name; defaults to the executable name.
	Prefix string `validate:"omitempty,excludesall=/\\"`
	// MaxFileSizeBytes triggers rotation; 0 selects DefaultMaxFileSizeBytes.
	MaxFileSizeBytes int64 `validate:"gte=0"`
	// RollingInterval triggers rotation at UTC calendar boundaries.
	RollingInterval RollingInterval `validate:"gte=0,lte=3"`
	// MaxBackupFiles is the number of files kept, the current one included.
	// 0 selects DefaultMaxBackupFiles; negative values are raised to 1.
	MaxBackupFiles int
	// Formatter renders entries; defaults to LineFormatter.
	Formatter Formatter `validate:"-"`
	// Metrics is optional.
	Metrics *Metrics `validate:"-"`
}

// FileSink appends records to {prefix}-{yyyyMMdd-HHmmss}.log files in one
// directory, rotating on size and calendar boundaries and pruning old files.
//
// States: no file open (initial, and after a failed open) and file open.
// Trigger check, rotation and append run under one mutex, so the byte
// counter always equals the bytes appended to the current file.
type FileSink struct {
	name      string
	dir       string
	prefix    string
	maxSize   int64
	interval  RollingInterval
	keep      int
	formatter Formatter
	metrics   *Metrics
	pattern   *regexp.Regexp

	mu       sync.Mutex
	file     *os.File
	path     string
	size     int64
	boundary time.Time
	closed   bool
	now      func() time.Time
}

// NewFileSink validates opts and creates the target directory. No file is
// opened until the first Write.
func NewFileSink(opts FileSinkOptions) (*FileSink, error) {
	const op errors.Op = "logpipe.NewFileSink"
	if strings.TrimSpace(opts.Directory) == emptyString {
		return nil, errors.New(op).Msg(errMsgEmptyDirectory)
	}
	if err := validateOptions(op, opts); err != nil {
		return nil, err
	}

	s := &FileSink{
		name:      opts.Name,
		dir:       opts.Directory,
		prefix:    opts.Prefix,
		maxSize:   opts.MaxFileSizeBytes,
		interval:  opts.RollingInterval,
		keep:      opts.MaxBackupFiles,
		formatter: opts.Formatter,
		metrics:   opts.Metrics,
		now:       time.Now,
	}
	if s.name == emptyString {
		s.name = "file"
	}
	if s.prefix == emptyString {
		s.prefix = defaultPrefix()
	}
	if s.maxSize == 0 {
		s.maxSize = DefaultMaxFileSizeBytes
	}
	switch {
	case s.keep == 0:
		s.keep = DefaultMaxBackupFiles
	case s.keep < 1:
		s.keep = 1
	}
	if s.formatter == nil {
		s.formatter = LineFormatter{}
	}
	s.pattern = regexp.MustCompile(`^` + regexp.QuoteMeta(s.prefix) + `-(\d{8}-\d{6})(?:-(\d+))?` + regexp.QuoteMeta(fileExtension) + `$`)

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, errors.New(op).Err(err).Msg(errMsgCreateDirectory)
	}
	return s, nil
}

// defaultPrefix is the executable's base name without extension.
func defaultPrefix() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultFilePrefix
	}
	name := strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
	if name == emptyString || name == "." {
		return DefaultFilePrefix
	}
	return name
}

// Name implements Sink.
func (s *FileSink) Name() string { return s.name }

// Formatter implements Sink.
func (s *FileSink) Formatter() Formatter { return s.formatter }

// Directory returns the directory files are written to.
func (s *FileSink) Directory() string { return s.dir }

// CurrentFile returns the path of the open file, or "" when none is open.
func (s *FileSink) CurrentFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Write appends formatted and a newline, rotating first when the record
// would push the current file past the size limit or when the rolling
// boundary has advanced. A record larger than the limit goes to a fresh
// file on its own.
func (s *FileSink) Write(formatted string) error {
	const op errors.Op = "logpipe.FileSink.Write"

	record := make([]byte, 0, len(formatted)+1)
	record = append(record, formatted...)
	record = append(record, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}

	now := s.now()
	if s.file == nil || s.shouldRotate(int64(len(record)), now) {
		if err := s.rotate(now); err != nil {
			return errors.New(op).Err(err).Msg("Failed to rotate log file.")
		}
	}

	n, err := s.file.Write(record)
	s.size += int64(n)
	if err != nil {
		return errors.New(op).Err(err).Msg("Failed to write log file.")
	}
	return nil
}

func (s *FileSink) shouldRotate(pending int64, now time.Time) bool {
	if s.size > 0 && s.size+pending > s.maxSize {
		return true
	}
	if s.interval != RollingNone && periodStart(now, s.interval).After(s.boundary) {
		return true
	}
	return false
}

// rotate closes the current file, opens the next one and prunes. On an open
// failure the sink is left with no file open and the next Write retries.
func (s *FileSink) rotate(now time.Time) error {
	if s.file != nil {
		if err := s.closeFile(); err != nil {
			diag().Warn().Err(err).Str("sink", s.name).Msg("closing rotated log file")
		}
	}

	f, path, err := s.openNext(now)
	if err != nil {
		return err
	}

	s.file = f
	s.path = path
	s.size = 0
	s.boundary = periodStart(now, s.interval)
	s.metrics.fileRotated(s.name)

	s.prune()
	return nil
}

// openNext creates a file that did not exist before. Rotations within the
// same second get a -N sequence suffix.
func (s *FileSink) openNext(now time.Time) (*os.File, string, error) {
	stamp := now.UTC().Format(fileStampLayout)
	for seq := 0; seq < maxNameAttempts; seq++ {
		name := s.prefix + "-" + stamp
		if seq > 0 {
			name += "-" + strconv.Itoa(seq)
		}
		path := filepath.Join(s.dir, name+fileExtension)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL|os.O_APPEND, 0o644)
		if stderrs.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, emptyString, err
		}
		return f, path, nil
	}
	return nil, emptyString, fmt.Errorf("no free log file name for %s-%s", s.prefix, stamp)
}

func (s *FileSink) closeFile() error {
	f := s.file
	s.file = nil
	s.path = emptyString
	s.size = 0

	syncErr := f.Sync()
	closeErr := f.Close()
	if closeErr != nil {
		return closeErr
	}
	return syncErr
}

type logFile struct {
	name  string
	stamp string
	seq   int
}

// prune keeps the newest s.keep files matching the prefix and deletes the
// rest. Every failure is skipped: retention must never fail a log call.
func (s *FileSink) prune() {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		diag().Debug().Err(err).Str("sink", s.name).Msg("listing log directory")
		return
	}

	var files []logFile
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		m := s.pattern.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		seq := 0
		if m[2] != emptyString {
			seq, _ = strconv.Atoi(m[2])
		}
		files = append(files, logFile{name: de.Name(), stamp: m[1], seq: seq})
	}
	if len(files) <= s.keep {
		return
	}

	// newest first: the name encodes the creation time and sequence
	sort.Slice(files, func(i, j int) bool {
		if files[i].stamp != files[j].stamp {
			return files[i].stamp > files[j].stamp
		}
		return files[i].seq > files[j].seq
	})

	current := filepath.Base(s.path)
	removed := 0
	for _, lf := range files[s.keep:] {
		if lf.name == current {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, lf.name)); err != nil {
			diag().Debug().Err(err).Str("sink", s.name).Str("file", lf.name).Msg("pruning log file")
			continue
		}
		removed++
	}
	s.metrics.filesPruned(s.name, removed)
}

// Close flushes and closes the open file. Further calls are no-ops.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.file == nil {
		return nil
	}
	return s.closeFile()
}
