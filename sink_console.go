package logpipe

import (
	"io"
	"os"
	"sync"

	"github.com/Station-Manager/errors"
)

// ConsoleSink writes each record synchronously, unbuffered, to a stream.
type ConsoleSink struct {
	name      string
	out       io.Writer
	formatter Formatter

	mu sync.Mutex
}

// NewConsoleSink writes to out (os.Stdout when nil) using formatter.
func NewConsoleSink(out io.Writer, formatter Formatter) (*ConsoleSink, error) {
	const op errors.Op = "logpipe.NewConsoleSink"
	if formatter == nil {
		return nil, errors.New(op).Msg(errMsgNilFormatter)
	}
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSink{name: "console", out: out, formatter: formatter}, nil
}

// Name implements Sink.
func (s *ConsoleSink) Name() string { return s.name }

// Formatter implements Sink.
func (s *ConsoleSink) Formatter() Formatter { return s.formatter }

// Write implements Sink. The record and its newline go out in one call.
func (s *ConsoleSink) Write(formatted string) error {
	buf := make([]byte, 0, len(formatted)+1)
	buf = append(buf, formatted...)
	buf = append(buf, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.out.Write(buf)
	return err
}

// Close implements Sink. The stream is not owned and stays open.
func (s *ConsoleSink) Close() error {
	return nil
}
