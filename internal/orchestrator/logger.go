// Package orchestrator coordinates agent dispatch and recursive reasoning.
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugLogger appends timestamped engine events to a log file. The zero
// value discards everything; all methods are safe on a nil receiver, so
// components can log unconditionally.
type DebugLogger struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewDebugLogger opens (appending) the log file at logPath, creating parent
// directories as needed. An empty path disables logging.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &DebugLogger{path: logPath, file: f}
	l.Log("--- debug log opened ---")
	return l, nil
}

// NopLogger returns a logger that discards everything.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// Path returns the log file location, empty for a disabled logger.
func (l *DebugLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Log writes one timestamped line. Each line is synced so a crash mid-run
// leaves the log readable.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}

	fmt.Fprintf(l.file, "[%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05.000"), fmt.Sprintf(format, args...))
	l.file.Sync()
}

// Close writes a closing marker and releases the file. Logging after Close
// is a no-op rather than a write to a closed descriptor.
func (l *DebugLogger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}

	fmt.Fprintf(l.file, "[%s] --- debug log closed ---\n",
		time.Now().Format("2006-01-02 15:04:05.000"))
	err := l.file.Close()
	l.file = nil
	return err
}
