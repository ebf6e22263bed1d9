package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger provides leveled logging with verbose mode support.
// A Logger may carry a component name which is printed after the level.
type Logger struct {
	verbose   *bool
	mu        *sync.RWMutex
	component string
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		verbose := false
		globalLogger = &Logger{
			verbose: &verbose,
			mu:      &sync.RWMutex{},
		}
	})
	return globalLogger
}

// Component returns a logger sharing the global verbosity that prefixes
// every line with [name].
func Component(name string) *Logger {
	return GetLogger().With(name)
}

// With returns a child logger for the named component
func (l *Logger) With(component string) *Logger {
	return &Logger{
		verbose:   l.verbose,
		mu:        l.mu,
		component: component,
	}
}

// SetVerbose enables or disables verbose logging
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.verbose = verbose
}

// IsVerbose returns whether verbose logging is enabled
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return *l.verbose
}

func (l *Logger) printf(level, format string, args ...interface{}) {
	prefix := "[" + level + "] "
	if l.component != "" {
		prefix += "[" + l.component + "] "
	}
	log.Printf(prefix+format, args...)
}

// Debug logs a debug message (only when verbose is enabled)
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.IsVerbose() {
		l.printf("DEBUG", format, args...)
	}
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.printf("INFO", format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.printf("WARN", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.printf("ERROR", format, args...)
}

// Debugf is a convenience function for debug logging
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Warnf is a convenience function for warning logging
func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// SetVerboseMode is a convenience function to set global verbose mode
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
	if verbose {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	} else {
		log.SetFlags(0)
	}
	log.SetOutput(os.Stderr)
}

// ENABLE_BACKGROUND_LOGGING controls whether detached flushes write a log file
const ENABLE_BACKGROUND_LOGGING = true

// BackgroundLogger writes the log of a detached background flush to a file
// under the temp directory. A disabled logger swallows every call.
type BackgroundLogger struct {
	logger  *log.Logger
	file    io.Closer
	path    string
	enabled bool
}

// NewBackgroundLogger opens /tmp/focusync-background-flush-{PID}.log.
// The returned logger is always usable; on failure it is disabled and the
// error explains why.
func NewBackgroundLogger() (*BackgroundLogger, error) {
	bl := &BackgroundLogger{}
	if !ENABLE_BACKGROUND_LOGGING {
		return bl, nil
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("focusync-background-flush-%d.log", os.Getpid()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return bl, fmt.Errorf("failed to open background log: %w", err)
	}

	bl.logger = log.New(f, "[BackgroundFlush] ", log.LstdFlags)
	bl.file = f
	bl.path = path
	bl.enabled = true
	return bl, nil
}

// IsEnabled reports whether lines are written anywhere
func (b *BackgroundLogger) IsEnabled() bool {
	return b != nil && b.enabled
}

// GetLogPath returns the log file path ("" when disabled)
func (b *BackgroundLogger) GetLogPath() string {
	if b == nil {
		return ""
	}
	return b.path
}

// Printf writes one line to the log file
func (b *BackgroundLogger) Printf(format string, args ...interface{}) {
	if !b.IsEnabled() {
		return
	}
	b.logger.Printf(format, args...)
}

// Close closes the underlying file
func (b *BackgroundLogger) Close() error {
	if !b.IsEnabled() {
		return nil
	}
	b.enabled = false
	return b.file.Close()
}
