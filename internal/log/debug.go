// Package log provides the debug logger used across lazystage.
// Messages are buffered until a destination is configured, then flushed to a
// size-rotated file. Without a destination they are discarded.
package log

import (
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultMaxSizeMB is the size at which the debug log file is rotated.
const DefaultMaxSizeMB = 10

// DebugLogger handles debug logging to file and/or buffering.
// It implements io.Writer to be compatible with standard log.Logger.
type DebugLogger struct {
	mu        sync.Mutex
	file      io.WriteCloser
	buffer    []byte
	discard   bool
	maxSizeMB int
}

var (
	globalDebugLogger = &DebugLogger{maxSizeMB: DefaultMaxSizeMB}
	// stdLogger wraps our custom writer to provide standard log formatting
	stdLogger = log.New(globalDebugLogger, "", log.LstdFlags|log.Lmicroseconds)
)

// Write implements io.Writer.
// It writes to the file if set, otherwise appends to the buffer.
func (l *DebugLogger) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.discard {
		return len(p), nil
	}

	if l.file != nil {
		return l.file.Write(p)
	}

	// p might be reused by the caller
	b := make([]byte, len(p))
	copy(b, p)
	l.buffer = append(l.buffer, b...)
	return len(p), nil
}

// SetMaxSize sets the rotation size in megabytes for files opened afterwards.
func SetMaxSize(megabytes int) {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()
	if megabytes <= 0 {
		megabytes = DefaultMaxSizeMB
	}
	globalDebugLogger.maxSizeMB = megabytes
}

// SetFile sets the debug log file path. Creates the file if it doesn't exist.
// If path is empty, discards all buffered logs and future logs.
func SetFile(path string) error {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()

	if globalDebugLogger.file != nil {
		_ = globalDebugLogger.file.Close()
		globalDebugLogger.file = nil
	}

	if path == "" {
		globalDebugLogger.discard = true
		globalDebugLogger.buffer = nil
		return nil
	}

	// lumberjack opens lazily; open now so a bad path is reported to the caller.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec
	if err != nil {
		globalDebugLogger.discard = true
		globalDebugLogger.buffer = nil
		return err
	}
	_ = f.Close()

	globalDebugLogger.file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    globalDebugLogger.maxSizeMB,
		MaxBackups: 3,
	}
	globalDebugLogger.discard = false

	if len(globalDebugLogger.buffer) > 0 {
		_, _ = globalDebugLogger.file.Write(globalDebugLogger.buffer)
		globalDebugLogger.buffer = nil
	}

	return nil
}

// Printf writes a formatted debug message via the standard logger.
func Printf(format string, args ...any) {
	stdLogger.Printf(format, args...)
}

// Close closes the debug log file if open.
func Close() error {
	globalDebugLogger.mu.Lock()
	defer globalDebugLogger.mu.Unlock()

	if globalDebugLogger.file == nil {
		return nil
	}

	err := globalDebugLogger.file.Close()
	globalDebugLogger.file = nil
	return err
}
