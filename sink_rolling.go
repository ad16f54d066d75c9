package logpipe

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/Station-Manager/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RollingFileSinkOptions configures a RollingFileSink.
type RollingFileSinkOptions struct {
	// Name labels the sink in metrics and diagnostics; defaults to "rolling".
	Name string
	// Filename is the active log file; backups are created next to it.
	Filename   string `validate:"required"`
	MaxSizeMB  int    `validate:"gte=0,lte=10240"`
	MaxBackups int    `validate:"gte=0,lte=1024"`
	MaxAgeDays int    `validate:"gte=0,lte=3650"`
	Compress   bool
	LocalTime  bool
	Formatter  Formatter `validate:"-"`
}

// RollingFileSink keeps a stable active file name and renames it to a
// timestamped backup when it exceeds MaxSizeMB, optionally gzip-compressing
// and age-pruning the backups. It complements FileSink for deployments that
// tail a fixed path.
type RollingFileSink struct {
	name      string
	formatter Formatter

	mu     sync.Mutex
	writer *lumberjack.Logger
	closed bool
}

// NewRollingFileSink validates opts and prepares the rolling writer. The
// file is created on first Write.
func NewRollingFileSink(opts RollingFileSinkOptions) (*RollingFileSink, error) {
	const op errors.Op = "logpipe.NewRollingFileSink"
	if strings.TrimSpace(opts.Filename) == emptyString {
		return nil, errors.New(op).Msg(errMsgEmptyFilename)
	}
	if err := validateOptions(op, opts); err != nil {
		return nil, err
	}

	s := &RollingFileSink{
		name:      opts.Name,
		formatter: opts.Formatter,
		writer: &lumberjack.Logger{
			Filename:   filepath.Clean(opts.Filename),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
			LocalTime:  opts.LocalTime,
		},
	}
	if s.name == emptyString {
		s.name = "rolling"
	}
	if s.formatter == nil {
		s.formatter = LineFormatter{}
	}
	return s, nil
}

// Name implements Sink.
func (s *RollingFileSink) Name() string { return s.name }

// Formatter implements Sink.
func (s *RollingFileSink) Formatter() Formatter { return s.formatter }

// Filename returns the active file path.
func (s *RollingFileSink) Filename() string { return s.writer.Filename }

// Write implements Sink.
func (s *RollingFileSink) Write(formatted string) error {
	record := make([]byte, 0, len(formatted)+1)
	record = append(record, formatted...)
	record = append(record, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	_, err := s.writer.Write(record)
	return err
}

// Rotate forces a new active file.
func (s *RollingFileSink) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	return s.writer.Rotate()
}

// Close implements Sink; later calls are no-ops.
func (s *RollingFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.writer.Close()
}
