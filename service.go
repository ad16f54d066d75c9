package logpipe

import (
	"context"
	stderrs "errors"
	"fmt"
	"sync"
	"time"

	"github.com/Station-Manager/errors"
	"go.uber.org/atomic"
)

// Service owns the shared pipeline: one LevelFilter, an ordered list of
// sinks and an ordered list of enrichers. Per-category Loggers are cheap
// views onto it.
//
// Set the exported fields, call Initialize once, hand out Loggers, and Close
// on shutdown. Close waits (bounded by ShutdownTimeout) for in-flight log
// calls before closing the sinks.
type Service struct {
	Filter          *LevelFilter
	Sinks           []Sink
	Enrichers       []Enricher
	Metrics         *Metrics
	ShutdownTimeout time.Duration

	initOnce      sync.Once
	initErr       error
	isInitialized atomic.Bool
	isClosed      atomic.Bool

	mu        sync.RWMutex
	wg        sync.WaitGroup
	activeOps atomic.Int64
}

// NewService builds and initializes a Service.
func NewService(filter *LevelFilter, sinks []Sink, enrichers ...Enricher) (*Service, error) {
	s := &Service{
		Filter:    filter,
		Sinks:     sinks,
		Enrichers: enrichers,
	}
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize checks the configuration and applies defaults. A missing filter
// becomes "info and above everywhere". Repeated calls return the first
// result.
func (s *Service) Initialize() error {
	const op errors.Op = "logpipe.Service.Initialize"
	if s == nil {
		return errors.New(op).Msg(errMsgNilService)
	}

	s.initOnce.Do(func() {
		for _, sink := range s.Sinks {
			if sink == nil {
				s.initErr = errors.New(op).Msg(errMsgNilSink)
				return
			}
		}
		for _, enricher := range s.Enrichers {
			if enricher == nil {
				s.initErr = errors.New(op).Msg(errMsgNilEnricher)
				return
			}
		}
		if s.Filter == nil {
			s.Filter = NewLevelFilter(FilterRules{Default: LevelInfo})
		}
		if s.ShutdownTimeout <= 0 {
			s.ShutdownTimeout = DefaultShutdownTimeoutMS * time.Millisecond
		}
		s.isInitialized.Store(true)
	})
	return s.initErr
}

// Logger returns the facade for category.
func (s *Service) Logger(category string) (*Logger, error) {
	const op errors.Op = "logpipe.Service.Logger"
	if s == nil {
		return nil, errors.New(op).Msg(errMsgNilService)
	}
	if category == emptyString {
		return nil, errors.New(op).Msg(errMsgEmptyCategory)
	}
	if !s.isInitialized.Load() {
		return nil, errors.New(op).Msg(errMsgNotInitialized)
	}
	if s.isClosed.Load() {
		return nil, errors.New(op).Msg(errMsgServiceClosed)
	}
	return &Logger{category: category, svc: s}, nil
}

// Write enriches and fans out an entry built by the caller, for host
// adapters that construct entries themselves. Level filtering is the
// caller's job (see Logger.IsEnabled). Only a nil entry is an error.
func (s *Service) Write(ctx context.Context, e *Entry) error {
	if e == nil {
		return ErrNilEntry
	}
	if s == nil {
		return nil
	}
	s.dispatch(ctx, e)
	return nil
}

// enabled is the cheap pre-check shared by every Logger.
func (s *Service) enabled(category string, level Level) bool {
	if s == nil || len(s.Sinks) == 0 || !s.isInitialized.Load() || s.isClosed.Load() {
		return false
	}
	return s.Filter.IsEnabled(category, level)
}

// begin registers an in-flight call. It fails once Close has started.
func (s *Service) begin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isInitialized.Load() || s.isClosed.Load() {
		return false
	}
	s.activeOps.Inc()
	s.wg.Add(1)
	return true
}

func (s *Service) end() {
	s.activeOps.Dec()
	s.wg.Done()
}

// dispatch runs the enrichers, freezes the entry and hands it to every sink.
// A failing sink never stops the others.
func (s *Service) dispatch(ctx context.Context, e *Entry) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.begin() {
		return
	}
	defer s.end()

	attachLoggerFields(e)
	for _, enricher := range s.Enrichers {
		s.enrich(ctx, enricher, e)
	}
	e.Freeze()

	for _, sink := range s.Sinks {
		s.writeTo(sink, e)
	}
}

func (s *Service) enrich(ctx context.Context, enricher Enricher, e *Entry) {
	defer func() {
		if r := recover(); r != nil {
			diag().Error().Str("enricher", fmt.Sprintf("%T", enricher)).Interface("panic", r).Msg("enricher panicked")
		}
	}()
	enricher.Enrich(ctx, e)
}

func (s *Service) writeTo(sink Sink, e *Entry) {
	name := sink.Name()
	defer func() {
		if r := recover(); r != nil {
			s.Metrics.sinkFailed(name)
			diag().Error().Str("sink", name).Interface("panic", r).Msg("sink panicked")
		}
	}()

	formatter := sink.Formatter()
	if formatter == nil {
		formatter = LineFormatter{}
	}
	formatted, err := formatter.Format(e)
	if err != nil {
		s.Metrics.sinkFailed(name)
		diag().Error().Err(err).Str("sink", name).Msg("formatting entry")
		return
	}
	if err := sink.Write(formatted); err != nil {
		s.Metrics.sinkFailed(name)
		diag().Error().Err(err).Str("sink", name).Msg("writing entry")
		return
	}
	s.Metrics.entryWritten(name, e.Level)
}

// Close stops accepting log calls, waits up to ShutdownTimeout for the ones
// in flight, then closes every sink. Sink close errors are joined. It is
// safe to call Close multiple times.
func (s *Service) Close() error {
	if s == nil || !s.isInitialized.Load() {
		return nil
	}

	s.mu.Lock()
	if s.isClosed.Load() {
		s.mu.Unlock()
		return nil
	}
	s.isClosed.Store(true)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(s.ShutdownTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		diag().Warn().
			Int64("active_operations", s.activeOps.Load()).
			Dur("timeout", s.ShutdownTimeout).
			Msg("Logger shutdown timeout exceeded")
	}

	var errs []error
	for _, sink := range s.Sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing sink %s: %w", sink.Name(), err))
		}
	}
	return stderrs.Join(errs...)
}
