package logpipe

import "errors"

const (
	emptyString = ""

	// DefaultMaxFileSizeBytes is the file sink size threshold (10 MiB).
	DefaultMaxFileSizeBytes int64 = 10 * 1024 * 1024
	// DefaultMaxBackupFiles is the number of files a file sink keeps.
	DefaultMaxBackupFiles = 10
	// DefaultFilePrefix names files when no prefix is configured and the
	// executable name cannot be determined.
	DefaultFilePrefix = "app"
	// DefaultShutdownTimeoutMS bounds how long Service.Close waits for
	// in-flight log calls.
	DefaultShutdownTimeoutMS = 1000
)

const (
	errMsgNilService      = "Logger service is nil."
	errMsgNilFormatter    = "Formatter is nil."
	errMsgNilSink         = "Sink is nil."
	errMsgNilEnricher     = "Enricher is nil."
	errMsgEmptyDirectory  = "Log directory is empty."
	errMsgEmptyFilename   = "Log file name is empty."
	errMsgEmptyCategory   = "Logger category is empty."
	errMsgOptionsInvalid  = "Sink options are invalid."
	errMsgNotInitialized  = "Logger service is not initialized."
	errMsgServiceClosed   = "Logger service is closed."
	errMsgCreateDirectory = "Failed to create log directory."
)

var (
	// ErrNilEntry is returned by formatters given a nil entry.
	ErrNilEntry = errors.New("logpipe: nil entry")

	// ErrSinkClosed is returned by Write after a sink has been closed.
	ErrSinkClosed = errors.New("logpipe: sink is closed")
)
